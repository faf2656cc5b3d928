package provider

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"power-roulette/internal/adapters/provider/loe"
	"power-roulette/internal/adapters/provider/oblenergo"
)

func TestForCity(t *testing.T) {
	p, err := ForCity("Коломия", Options{})
	require.NoError(t, err)
	require.Equal(t, oblenergo.ProviderName, p.Name())

	p, err = ForCity(" Львів ", Options{})
	require.NoError(t, err)
	require.Equal(t, loe.ProviderName, p.Name())

	_, err = ForCity("Київ", Options{})
	require.True(t, errors.Is(err, ErrUnsupportedCity))
}

func TestSortQueues(t *testing.T) {
	queues := []string{"10.1", "2.2", "1.2", "2.1", "1.1"}
	SortQueues(queues)
	require.Equal(t, []string{"1.1", "1.2", "2.1", "2.2", "10.1"}, queues)
}

func TestCities(t *testing.T) {
	cities := Cities()
	require.Contains(t, cities, "Івано-Франківськ")
	require.Contains(t, cities, "Львів")
}
