package host

// object is an entry of an env's object table.
type object interface {
	objectTag() Tag
}

type (
	u64Object    uint64
	i64Object    int64
	bytesObject  []byte
	stringObject string
	symbolObject string
	vecObject    []Val
	mapObject    []MapEntry // sorted by key, keys distinct
)

func (u64Object) objectTag() Tag    { return TagU64Object }
func (i64Object) objectTag() Tag    { return TagI64Object }
func (bytesObject) objectTag() Tag  { return TagBytesObject }
func (stringObject) objectTag() Tag { return TagStringObject }
func (symbolObject) objectTag() Tag { return TagSymbolObject }
func (vecObject) objectTag() Tag    { return TagVecObject }
func (mapObject) objectTag() Tag    { return TagMapObject }

// MapEntry is one key/value pair of a host map.
type MapEntry struct {
	Key Val
	Val Val
}
