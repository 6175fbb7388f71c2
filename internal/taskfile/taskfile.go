package taskfile

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/tidwall/gjson"

	"github.com/joshharrison/pertloom/internal/task"
)

// ErrNoTasks is returned when the input holds no task records.
var ErrNoTasks = errors.New("no tasks found")

// Field aliases accepted for each record attribute, in lookup order.
var (
	nameKeys        = []string{"name", "title"}
	optimisticKeys  = []string{"optimistic", "optimistic_time", "o"}
	realisticKeys   = []string{"realistic", "realistic_time", "most_likely", "r"}
	pessimisticKeys = []string{"pessimistic", "pessimistic_time", "p"}
)

// Load reads task records from a JSON file. A path of "-" reads stdin.
func Load(path string) ([]task.Task, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read task file: %w", err)
	}

	tasks, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return tasks, nil
}

// Parse decodes task records from JSON. The document is either an array of
// records or an object with a "tasks" array. Every record is validated.
func Parse(data []byte) ([]task.Task, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("invalid JSON")
	}

	root := gjson.ParseBytes(data)
	records := root
	if root.IsObject() {
		records = root.Get("tasks")
	}
	if !records.IsArray() {
		return nil, fmt.Errorf("expected an array of tasks or an object with a \"tasks\" array")
	}

	var (
		tasks  []task.Task
		recErr error
		index  int
	)
	records.ForEach(func(_, rec gjson.Result) bool {
		t, err := parseRecord(rec)
		if err != nil {
			recErr = fmt.Errorf("record %d: %w", index, err)
			return false
		}
		tasks = append(tasks, t)
		index++
		return true
	})
	if recErr != nil {
		return nil, recErr
	}
	if len(tasks) == 0 {
		return nil, ErrNoTasks
	}
	return tasks, nil
}

func parseRecord(rec gjson.Result) (task.Task, error) {
	if !rec.IsObject() {
		return task.Task{}, fmt.Errorf("expected an object, got %s", rec.Type)
	}

	name := lookup(rec, nameKeys)
	o, err := number(rec, optimisticKeys)
	if err != nil {
		return task.Task{}, err
	}
	r, err := number(rec, realisticKeys)
	if err != nil {
		return task.Task{}, err
	}
	p, err := number(rec, pessimisticKeys)
	if err != nil {
		return task.Task{}, err
	}

	return task.Parse(name.String(), o, r, p)
}

func lookup(rec gjson.Result, keys []string) gjson.Result {
	for _, k := range keys {
		if v := rec.Get(k); v.Exists() {
			return v
		}
	}
	return gjson.Result{}
}

func number(rec gjson.Result, keys []string) (float64, error) {
	v := lookup(rec, keys)
	switch v.Type {
	case gjson.Number:
		return v.Float(), nil
	case gjson.Null:
		if !v.Exists() {
			return 0, fmt.Errorf("missing field %q", keys[0])
		}
	}
	return 0, fmt.Errorf("field %q must be a number, got %s", keys[0], v.Raw)
}
