package callbacks

import (
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/AntoniaMarcu/torchbearer/train"
)

// CSVLogger appends one row of metrics per epoch to a CSV file. The header is
// taken from the first epoch's metric keys in sorted order.
//
// The file opens at OnStart and closes at OnEnd. Every row is flushed as it
// is written, so a run that aborts mid-training loses no rows even though
// OnEnd never fires; the handle is then reclaimed at the next OnStart or at
// process exit.
type CSVLogger struct {
	train.BaseCallback
	path   string
	file   *os.File
	w      *csv.Writer
	header []string
}

// NewCSVLogger creates the callback writing to path.
func NewCSVLogger(path string) *CSVLogger {
	return &CSVLogger{path: path}
}

// OnStart creates (truncates) the output file, closing any handle left over
// from an aborted run.
func (l *CSVLogger) OnStart(train.State) error {
	if l.file != nil {
		l.file.Close()
		l.file = nil
		l.w = nil
	}
	f, err := os.Create(l.path)
	if err != nil {
		return fmt.Errorf("csv logger: %w", err)
	}
	l.file = f
	l.w = csv.NewWriter(f)
	l.header = nil
	return nil
}

// OnEndEpoch writes the epoch row, emitting the header first when needed.
func (l *CSVLogger) OnEndEpoch(s train.State) error {
	if l.w == nil {
		return fmt.Errorf("csv logger: not started")
	}
	metrics := s.Metrics()
	if l.header == nil {
		l.header = make([]string, 0, len(metrics))
		for k := range metrics {
			l.header = append(l.header, k)
		}
		sort.Strings(l.header)
		if err := l.w.Write(append([]string{"epoch"}, l.header...)); err != nil {
			return fmt.Errorf("csv logger: %w", err)
		}
	}
	row := make([]string, 0, 1+len(l.header))
	row = append(row, strconv.Itoa(s.Epoch()))
	for _, k := range l.header {
		row = append(row, strconv.FormatFloat(metrics[k], 'g', -1, 64))
	}
	if err := l.w.Write(row); err != nil {
		return fmt.Errorf("csv logger: %w", err)
	}
	l.w.Flush()
	return l.w.Error()
}

// OnEnd flushes and closes the file.
func (l *CSVLogger) OnEnd(train.State) error {
	if l.w != nil {
		l.w.Flush()
	}
	if l.file != nil {
		if err := l.file.Close(); err != nil {
			return fmt.Errorf("csv logger: %w", err)
		}
		l.file = nil
	}
	return nil
}
