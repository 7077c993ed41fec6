package sqlc

import (
	"time"

	"github.com/sqlc-dev/pqtype"
)

const (
	QuerierCtxTimeout = time.Second * 10
)

type DbManager struct {
	Queries   Querier
	Analytics *AnalyticsManager
}

func NewDbManager(queries Querier, serverIp pqtype.Inet) DbManager {
	return DbManager{
		Queries:   queries,
		Analytics: NewAnalyticsManager(queries, serverIp),
	}
}
