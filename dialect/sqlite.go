package dialect

type sqlite struct{}

func (sqlite) Name() Name { return SQLite }
func (sqlite) DriverName() string { return "sqlite3" }
func (sqlite) QuoteIdent(n string) string { return quote(n, `"`) }
func (sqlite) Placeholder(int) string { return "?" }
func (sqlite) OffsetWithoutLimit() string { return "-1" }

func (sqlite) Supports(f Feature) bool {
	switch f {
	case FeatureReturning, FeatureNullsOrdering, FeatureOnConflict,
		FeatureDefaultValues, FeatureTransactionalDDL:
		return true
	}
	return false
}
