package availability

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"

	"github.com/agentstation/pricemap/pkg/errors"
)

// Warehouses is the static warehouse configuration the classifier works from.
// Names maps the full warehouse name the API reports to its short code;
// Group1 and Group2 partition a subset of codes into priority groups.
type Warehouses struct {
	Names  map[string]string `yaml:"names" json:"names"`
	Group1 []string          `yaml:"group1" json:"group1"`
	Group2 []string          `yaml:"group2" json:"group2"`
}

// DefaultWarehouses returns the warehouse table used by the price list.
// Some full names share a code; those warehouses are classified together.
func DefaultWarehouses() Warehouses {
	return Warehouses{
		Names: map[string]string{
			"Новосибирск (Троллейная)":           "Н(Т)",
			"Новосибирск (Рудокопровая)":         "Н(Р)",
			"Новосибирск (Большая)":              "Н(Б)",
			"Новосибирск (Дунаевского)":          "Н(Д)",
			"Новосибирск (Дуси Ковальчук)":       "Н(ДУ)",
			"Новосибирск (Гусинобродское шоссе)": "Н(ГП)",
			"Новосибирск (Петухова)":             "Н(ПП)",
			"Томск (Балтийская)":                 "То(Б)",
			"Барнаул (Покровская)":               "Б(П)",
			"Пермь (Танкистов)":                  "П(Т)",
			"Белгород (Луговая)":                 "Бе(Л)",
			"Кемерово (Кузнецкий)":               "Ке(К)",
			"Липецк (Катукова)":                  "ЛК(К)",
			"Кемерово (Мартемьянова)":            "Ке(М)",
			"Кемерово (Проездная)":               "Ке(П)",
			"Барнаул (Попова)":                   "Ба(Поп)",
			"Барнаул (Павловский тракт)":         "Ба(П)",
			"Бийск (Кожзаводская)":               "Бий(К)",
			"Бийск (Митрофанова)":                "Бий(М)",
			"Горно-Алтайск (Коммунистический)":   "ГА(К)",
			"Абакан (Игарская)":                  "Аб(И)",
			"Красноярск (Одесская)":              "К(О)",
			"Красноярск (Грунтовая)":             "К(Г)",
			"Красноярск (Металлургов)":           "К(М)",
			"Красноярск (Шахтеров)":              "К(Ш)",
			"Красноярск (Северное шоссе)":        "К(С)",
			"Красноярск (Красноярск)":            "К(Кр)",
			"Екатеринбург (Лукиных)":             "Е(Л)",
			"Иркутск (Ракитная)":                 "И(Р)",
			"Улан-Удэ (пр-т Автомобилистов)":     "УУ(А)",
			"Иркутск (Автоград)":                 "И(А)",
			"Чита (Ленина)":                      "Ч(Л)",
			"Владивосток (Кубанская)":            "В(К)",
			"Владивосток (Камская)":              "В(П)",
			"Братск (Коммунальная)":              "Б(К)",
			"Благовещенск (Театральная)":         "Б(Т)",
			"Рязань (Лермонтова)":                "Р(Л)",
			"Москва (Апаринки)":                  "М(А)",
			"Ростов-на-Дону (Металлургическая)":  "РнД(М)",
			"Ростов-на-Дону (Доватора)":          "РнД(Д)",
			"Находка (Вторая)":                   "На(В)",
			"Сургут (Рационализаторов)":          "Су(Р)",
			"Уссурийск (Чичерина)":               "Ус(Б)",
			"Иркутск (Академическая)":            "И(Ак)",
			"Краснодар (Метальникова)":           "Крд (М)",
			"Тюмень (Дружбы)":                    "Тю (Д)",
			"Нижний Новгород (Ларина)":           "НН(Л)",
			"Артем (Вокзальная)":                 "Ар(В)",
			"Воронеж (Конструкторов)":            "В(К)",
			"Новокузнецк (Рудокопровая)":         "Н(Р)",
		},
		Group1: []string{
			"Н(Т)", "Н(Р)", "Н(Б)", "Н(Д)", "Н(ДУ)", "Н(ГП)", "Н(ПП)", "То(Б)", "Б(П)", "П(Т)",
			"Бе(Л)", "Ке(К)", "ЛК(К)", "Ке(М)", "Ке(П)", "Ба(П)", "Ба(Поп)", "Бий(К)", "Бий(М)", "ГА(К)",
		},
		Group2: []string{
			"Аб(И)", "К(О)", "К(Г)", "К(М)", "К(Ш)", "К(С)", "К(Кр)", "Е(Л)",
		},
	}
}

// Validate checks that the two priority groups are disjoint.
func (w Warehouses) Validate() error {
	seen := make(map[string]bool, len(w.Group1))
	for _, code := range w.Group1 {
		seen[code] = true
	}
	for _, code := range w.Group2 {
		if seen[code] {
			return &errors.ValidationError{
				Field:   "group2",
				Value:   code,
				Message: "warehouse code is in both priority groups",
			}
		}
	}
	return nil
}

// LoadWarehouses reads a warehouse table from a YAML file. Sections missing
// from the file keep their default values.
func LoadWarehouses(path string) (Warehouses, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from operator config
	if err != nil {
		return Warehouses{}, errors.WrapPrecondition("warehouses", "cannot read warehouse table", err)
	}
	return ParseWarehouses(data)
}

// ParseWarehouses decodes a YAML warehouse table over the defaults.
func ParseWarehouses(data []byte) (Warehouses, error) {
	var file Warehouses
	if err := yaml.Unmarshal(data, &file); err != nil {
		return Warehouses{}, errors.WrapParse("yaml", "", fmt.Errorf("decoding warehouses: %w", err))
	}

	w := DefaultWarehouses()
	if file.Names != nil {
		w.Names = file.Names
	}
	if file.Group1 != nil {
		w.Group1 = file.Group1
	}
	if file.Group2 != nil {
		w.Group2 = file.Group2
	}
	if err := w.Validate(); err != nil {
		return Warehouses{}, err
	}
	return w, nil
}
