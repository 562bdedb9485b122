package dialect

import "strconv"

type postgres struct{}

func (postgres) Name() Name { return Postgres }
func (postgres) DriverName() string { return "postgres" }
func (postgres) QuoteIdent(n string) string { return quote(n, `"`) }
func (postgres) Placeholder(n int) string { return "$" + strconv.Itoa(n) }
func (postgres) OffsetWithoutLimit() string { return "" }

func (postgres) Supports(f Feature) bool {
	switch f {
	case FeatureReturning, FeatureILike, FeatureArrays, FeatureNullsOrdering,
		FeatureRightJoin, FeatureOnConflict, FeatureDefaultValues, FeatureTransactionalDDL:
		return true
	}
	return false
}
