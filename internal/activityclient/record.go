package activityclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/alqazqaziabdulkarim-lang/task-tracker/internal/domain/model"
)

// activityRecord — активность в формате бэкенда.
// Идентификатор приходит в поле id или _id.
type activityRecord struct {
	ID          flexibleID `json:"id"`
	LegacyID    flexibleID `json:"_id"`
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	Completed   bool       `json:"completed"`
}

// normalize приводит запись к model.Activity с единственным ID.
// Поле id имеет приоритет над _id.
func (r activityRecord) normalize() model.Activity {
	id := string(r.ID)
	if id == "" {
		id = string(r.LegacyID)
	}

	description := ""
	if r.Description != nil {
		description = *r.Description
	}

	return model.Activity{
		ID:          id,
		Title:       r.Title,
		Description: description,
		Completed:   r.Completed,
	}
}

// flexibleID — идентификатор, который бэкенд отдаёт строкой или числом.
type flexibleID string

func (f *flexibleID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexibleID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("идентификатор активности должен быть строкой или числом: %s", data)
	}
	if i, err := n.Int64(); err == nil {
		*f = flexibleID(strconv.FormatInt(i, 10))
		return nil
	}
	*f = flexibleID(n.String())
	return nil
}
