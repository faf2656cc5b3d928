// Package provider выбирает адаптер графиков по городу.
package provider

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"power-roulette/internal/adapters/provider/loe"
	"power-roulette/internal/adapters/provider/oblenergo"
	"power-roulette/internal/domain"
)

// ErrUnsupportedCity возвращается для города без известного источника.
var ErrUnsupportedCity = errors.New("unsupported city")

// Івано-Франківська область: очереди общие для всех городов.
var ifCities = []string{
	"Івано-Франківськ",
	"Коломия",
	"Калуш",
	"Бурштин",
	"Надвірна",
	"Долина",
	"Яремче",
}

var lvivCities = []string{"Львів"}

// Options задаёт адреса источников; пустые значения означают адреса по умолчанию.
type Options struct {
	IFBaseURL  string
	LOEURL     string
	HTTPClient *http.Client
}

// Cities возвращает поддерживаемые города.
func Cities() []string {
	out := make([]string, 0, len(ifCities)+len(lvivCities))
	out = append(out, ifCities...)
	return append(out, lvivCities...)
}

// ForCity создаёт адаптер для города.
func ForCity(city string, opts Options) (domain.ScheduleProvider, error) {
	switch {
	case contains(ifCities, city):
		return oblenergo.NewClient(opts.IFBaseURL, opts.HTTPClient), nil
	case contains(lvivCities, city):
		return loe.NewScraper(opts.LOEURL, opts.HTTPClient), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedCity, city)
}

func contains(list []string, city string) bool {
	city = strings.TrimSpace(city)
	for _, item := range list {
		if strings.EqualFold(item, city) {
			return true
		}
	}
	return false
}

// SortQueues упорядочивает коды очередей вида "1.2" численно.
func SortQueues(queues []string) {
	sort.SliceStable(queues, func(i, j int) bool { return queueLess(queues[i], queues[j]) })
}

func queueLess(a, b string) bool {
	ap, bp := strings.Split(a, "."), strings.Split(b, ".")
	for i := 0; i < len(ap) && i < len(bp); i++ {
		an, aerr := strconv.Atoi(ap[i])
		bn, berr := strconv.Atoi(bp[i])
		if aerr != nil || berr != nil {
			if ap[i] != bp[i] {
				return ap[i] < bp[i]
			}
			continue
		}
		if an != bn {
			return an < bn
		}
	}
	return len(ap) < len(bp)
}
