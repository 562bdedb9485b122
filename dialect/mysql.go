package dialect

type mysql struct{}

func (mysql) Name() Name { return MySQL }
func (mysql) DriverName() string { return "mysql" }
func (mysql) QuoteIdent(n string) string { return quote(n, "`") }
func (mysql) Placeholder(int) string { return "?" }

// OffsetWithoutLimit returns the largest unsigned 64-bit value; MySQL
// rejects OFFSET without LIMIT.
func (mysql) OffsetWithoutLimit() string { return "18446744073709551615" }

func (mysql) Supports(f Feature) bool {
	switch f {
	case FeatureRightJoin, FeatureInsertIgnore:
		return true
	}
	return false
}
