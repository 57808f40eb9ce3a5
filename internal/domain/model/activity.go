package model

import "fmt"

// Activity — запись активности после нормализации идентификатора.
type Activity struct {
	// ID — канонический идентификатор (из поля id или _id бэкенда).
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
}

// Input возвращает полную полезную нагрузку записи для PUT.
func (a Activity) Input() ActivityInput {
	return ActivityInput{
		Title:       a.Title,
		Description: a.Description,
		Completed:   a.Completed,
	}
}

// ActivityInput — тело запросов создания и полной замены активности.
type ActivityInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
}

// FilterMode — режим фильтрации коллекции активностей.
type FilterMode string

const (
	FilterAll       FilterMode = "all"
	FilterActive    FilterMode = "active"
	FilterCompleted FilterMode = "completed"
)

// ParseFilterMode разбирает строку режима фильтрации.
func ParseFilterMode(s string) (FilterMode, error) {
	switch m := FilterMode(s); m {
	case FilterAll, FilterActive, FilterCompleted:
		return m, nil
	default:
		return "", fmt.Errorf("недопустимый режим фильтра %q, допустимые: all, active, completed", s)
	}
}

// Matches сообщает, попадает ли активность под режим фильтрации.
func (m FilterMode) Matches(a Activity) bool {
	switch m {
	case FilterActive:
		return !a.Completed
	case FilterCompleted:
		return a.Completed
	default:
		return true
	}
}
