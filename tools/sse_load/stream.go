package main

import (
	"bufio"
	"encoding/json"
	"io"
	"strings"

	"github.com/pkg/errors"

	"github.com/vadiminshakov/passkeywallet/internal/store"
)

const stateEvent = "state"

// event one server-sent event frame.
type event struct {
	Name string
	Data string
}

func (e event) session() (store.View, error) {
	var v store.View
	if err := json.Unmarshal([]byte(e.Data), &v); err != nil {
		return store.View{}, errors.Wrap(err, "decode state frame")
	}
	return v, nil
}

// readEvents parses frames from r until EOF. Comment lines are heartbeats and skipped.
func readEvents(r io.Reader, fn func(event)) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64<<10), 1<<20)

	var (
		cur  event
		data []string
	)
	for sc.Scan() {
		line := strings.TrimSuffix(sc.Text(), "\r")
		switch {
		case line == "":
			if cur.Name != "" || len(data) > 0 {
				cur.Data = strings.Join(data, "\n")
				fn(cur)
			}
			cur, data = event{}, nil
		case strings.HasPrefix(line, ":"):
		case strings.HasPrefix(line, "event:"):
			cur.Name = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data = append(data, strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		}
	}
	return sc.Err()
}
