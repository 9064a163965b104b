package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/mklimuk/hegemone/report"
)

// DefaultDataFile is the data dump written next to the system logs.
const DefaultDataFile = "/var/log/hegemone-data.dmp"

type FileOpts struct {
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// File appends readings as JSON lines to a size rotated file.
type File struct {
	mx  sync.Mutex
	out *lumberjack.Logger
	enc *json.Encoder
}

func NewFile(path string, opts FileOpts) *File {
	out := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAgeDays,
		Compress:   opts.Compress,
		LocalTime:  true,
	}
	return &File{out: out, enc: json.NewEncoder(out)}
}

func (f *File) Name() string {
	return "file"
}

func (f *File) Submit(ctx context.Context, r report.Reading) error {
	f.mx.Lock()
	defer f.mx.Unlock()
	if err := f.enc.Encode(r); err != nil {
		return fmt.Errorf("could not write %s: %w", f.out.Filename, err)
	}
	return nil
}

// Rotate starts a new file, keeping the current one as a backup.
func (f *File) Rotate() error {
	f.mx.Lock()
	defer f.mx.Unlock()
	return f.out.Rotate()
}

func (f *File) Close() error {
	f.mx.Lock()
	defer f.mx.Unlock()
	return f.out.Close()
}
