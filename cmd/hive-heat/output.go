package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/joshp123/hive-heat/plugins/hive"
)

const flame = "🔥"

type outputMode struct {
	json bool
	w    io.Writer
}

func (o outputMode) printJSON(value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("format json: %w", err)
	}
	_, err = fmt.Fprintln(o.w, string(data))
	return err
}

func (o outputMode) status(status hive.Status) error {
	if o.json {
		return o.printJSON(status)
	}
	_, err := io.WriteString(o.w, formatStatus(status))
	return err
}

func formatStatus(status hive.Status) string {
	target := fmt.Sprintf("Target      %6.1f°C", status.Target)
	if status.Working {
		target += " " + flame
	}
	return fmt.Sprintf("Temperature %6.1f°C\n%s\n", status.Temperature, target)
}
