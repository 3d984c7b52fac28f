package recorder

// NoopRecorder discards all records; used when no database is configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (*NoopRecorder) RecordTrade(*TradeRecord) error     { return nil }
func (*NoopRecorder) RecordSummary(*SummaryRecord) error { return nil }
func (*NoopRecorder) Close() error                       { return nil }
