// Package journal appends evaluated run reports to a rotating JSONL
// file for offline analysis and long-term collection.
package journal

import (
	"encoding/json"
	"log/slog"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"readiness/internal/engine"
)

// entry is one journal line: the session token, when the evaluation
// happened, and the full report.
type entry struct {
	Time   string         `json:"time"`
	Token  string         `json:"token"`
	Report *engine.Report `json:"report"`
}

// ReportJournal writes reports as JSON lines through a size-rotated,
// compressed file. Writes are thread-safe thanks to lumberjack.
type ReportJournal struct {
	out *lumberjack.Logger
}

// New creates a journal writing to file, rotating at maxSize megabytes
// and keeping maxBackups old files.
func New(file string, maxSize, maxBackups int) *ReportJournal {
	return &ReportJournal{
		out: &lumberjack.Logger{
			Filename:   file,
			MaxSize:    maxSize,
			MaxBackups: maxBackups,
			Compress:   true,
		},
	}
}

// Append writes one report line. Failures are logged and swallowed: the
// journal is a best-effort sink and must never fail an evaluation.
func (j *ReportJournal) Append(token string, report *engine.Report) {
	line, err := json.Marshal(entry{
		Time:   time.Now().UTC().Format(time.RFC3339),
		Token:  token,
		Report: report,
	})
	if err != nil {
		slog.Error("journal marshal", "error", err, "token", token)
		return
	}
	if _, err := j.out.Write(append(line, '\n')); err != nil {
		slog.Error("journal write", "error", err, "token", token)
	}
}

// Close flushes and closes the underlying file. Call on shutdown.
func (j *ReportJournal) Close() {
	j.out.Close()
}
