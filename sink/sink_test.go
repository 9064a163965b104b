package sink

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"github.com/mklimuk/hegemone/report"
	"github.com/mklimuk/hegemone/spectral"
)

var sample = report.Reading{
	DeviceID:      report.DefaultDeviceID,
	Timestamp:     time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	MoistureLevel: 812,
	SoilTemp:      17.5,
	AmbientTemp:   22.125,
	SpectralData:  spectral.Reading{1, 2, 3, 4, 5, 6, 7, 8, 9, 10},
	Light:         report.Light{Red: 40, Blue: 30, Green: 30, White: 4660, FarRed: 20},
	RLQI:          spectral.Quality{Blue: 30, Green: 30, Red: 40},
}

type closingSink struct {
	Func
	closed bool
}

func (c *closingSink) Close() error {
	c.closed = true
	return nil
}

func TestSubmitter_FanOut(t *testing.T) {
	var got []string
	record := func(name string, err error) Func {
		return func(ctx context.Context, r report.Reading) error {
			got = append(got, name)
			return err
		}
	}
	s := NewSubmitter(record("first", nil))
	s.Register(record("failing", errors.New("unreachable")))
	s.Register(record("last", nil))

	err := s.Submit(context.Background(), sample)
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 1)
	assert.Contains(t, err.Error(), "unreachable")
	assert.Equal(t, []string{"first", "failing", "last"}, got)
}

func TestSubmitter_Close(t *testing.T) {
	c := &closingSink{Func: func(ctx context.Context, r report.Reading) error { return nil }}
	s := NewSubmitter(NewLog(nil), c)
	require.NoError(t, s.Close())
	assert.True(t, c.closed)
	assert.Len(t, s.Sinks(), 2)
}

func TestLog_Submit(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	require.NoError(t, NewLog(logger).Submit(context.Background(), sample))
	assert.Contains(t, buf.String(), "plant reading")
	assert.Contains(t, buf.String(), `\"moisture_level\":812`)

	buf.Reset()
	quiet := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
	require.NoError(t, NewLog(quiet).Submit(context.Background(), sample))
	assert.Empty(t, buf.String())

	require.NoError(t, NewLog(quiet).WithLevel(slog.LevelInfo).Submit(context.Background(), sample))
	assert.NotEmpty(t, buf.String())
}

func TestHTTP_Submit(t *testing.T) {
	var received report.Reading
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	require.NoError(t, NewHTTP(srv.URL, time.Second).Submit(context.Background(), sample))
	assert.Equal(t, sample, received)
}

func TestHTTP_SubmitRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	err := NewHTTP(srv.URL, time.Second).Submit(context.Background(), sample)
	assert.ErrorContains(t, err, "502")
}

func TestPrometheus_Submit(t *testing.T) {
	p := NewPrometheus()
	require.NoError(t, p.Submit(context.Background(), sample))

	id := report.DefaultDeviceID
	assert.Equal(t, 812.0, testutil.ToFloat64(p.moisture.WithLabelValues(id)))
	assert.Equal(t, 22.125, testutil.ToFloat64(p.ambientTemp.WithLabelValues(id)))
	assert.Equal(t, 9.0, testutil.ToFloat64(p.spectral.WithLabelValues(id, "nired_910nm")))
	assert.Equal(t, 40.0, testutil.ToFloat64(p.rlqi.WithLabelValues(id, "red")))
	assert.Equal(t, float64(sample.Timestamp.Unix()), testutil.ToFloat64(p.timestamp.WithLabelValues(id)))

	srv := httptest.NewServer(p.Handler())
	defer srv.Close()
	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `hegemone_soil_moisture{device_id="PlantyPlantMonitor"} 812`)
}

func TestFile_Submit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hegemone-data.dmp")
	f := NewFile(path, FileOpts{MaxSizeMB: 1})
	ctx := context.Background()
	require.NoError(t, f.Submit(ctx, sample))
	require.NoError(t, f.Submit(ctx, sample))
	require.NoError(t, f.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	var decoded report.Reading
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &decoded))
	assert.Equal(t, sample, decoded)
}

func TestQuestDB_Submit(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	lines := make(chan string, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		line, _ := bufio.NewReader(conn).ReadString('\n')
		lines <- line
	}()

	ctx := context.Background()
	q, err := NewQuestDB(ctx, fmt.Sprintf("tcp::addr=%s;", ln.Addr().String()), "")
	require.NoError(t, err)
	require.NoError(t, q.Submit(ctx, sample))
	defer q.Close()

	select {
	case line := <-lines:
		assert.True(t, strings.HasPrefix(line, "hegemone_sensors,by=hegemone "), line)
		assert.Contains(t, line, `device_id="PlantyPlantMonitor"`)
		assert.Contains(t, line, "moisture_level=812i")
		assert.Contains(t, line, "spectral_data_9=10i")
		assert.Contains(t, line, "light_measurement_far_red=20i")
		assert.Contains(t, line, "rlqi_red=40i")
	case <-time.After(2 * time.Second):
		t.Fatal("no line received")
	}
}
