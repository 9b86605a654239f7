package cache

// Cache memoises derived string values (digit strings, canonical cores)
type Cache interface {
	Get(key string) (string, bool)
	Set(key string, value string)
	Len() int
	Clear()
}

// Key builds a namespaced cache key
func Key(namespace string, raw string) string {
	return "casechain:v1:" + namespace + ":" + raw
}
