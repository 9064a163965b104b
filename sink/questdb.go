package sink

import (
	"context"
	"fmt"
	"sync"

	qdb "github.com/questdb/go-questdb-client/v3"

	"github.com/mklimuk/hegemone/report"
)

const (
	DefaultQuestDBTable = "hegemone_sensors"
	questDBTag          = "by"
	questDBTagValue     = "hegemone"
)

// QuestDB writes flattened readings over the InfluxDB line protocol.
type QuestDB struct {
	mx     sync.Mutex
	table  string
	sender qdb.LineSender
}

// NewQuestDB connects using a client configuration string such as
// "tcp::addr=localhost:9009;".
func NewQuestDB(ctx context.Context, conf, table string) (*QuestDB, error) {
	sender, err := qdb.LineSenderFromConf(ctx, conf)
	if err != nil {
		return nil, fmt.Errorf("could not connect to questdb: %w", err)
	}
	if table == "" {
		table = DefaultQuestDBTable
	}
	return &QuestDB{table: table, sender: sender}, nil
}

func (q *QuestDB) Name() string {
	return "questdb"
}

// Submit writes one row per reading, tagged by=hegemone and timestamped with
// the reading time, and flushes it.
func (q *QuestDB) Submit(ctx context.Context, r report.Reading) error {
	q.mx.Lock()
	defer q.mx.Unlock()
	row := q.sender.Table(q.table).Symbol(questDBTag, questDBTagValue)
	for _, f := range r.Fields() {
		switch v := f.Value.(type) {
		case int64:
			row = row.Int64Column(f.Name, v)
		case float64:
			row = row.Float64Column(f.Name, v)
		case string:
			row = row.StringColumn(f.Name, v)
		default:
			row = row.StringColumn(f.Name, fmt.Sprint(v))
		}
	}
	if err := row.At(ctx, r.Timestamp); err != nil {
		return fmt.Errorf("could not write row: %w", err)
	}
	if err := q.sender.Flush(ctx); err != nil {
		return fmt.Errorf("could not flush: %w", err)
	}
	return nil
}

func (q *QuestDB) Close() error {
	q.mx.Lock()
	defer q.mx.Unlock()
	return q.sender.Close(context.Background())
}
