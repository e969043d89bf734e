package types

// DataType enumerates the element types a loaded model can report for its
// input and output tensors. The zero value is DataTypeInvalid so that an
// unset field never masquerades as a real type.
type DataType int

const (
	DataTypeInvalid DataType = iota
	DataTypeBool
	DataTypeUint8
	DataTypeUint16
	DataTypeUint32
	DataTypeUint64
	DataTypeInt8
	DataTypeInt16
	DataTypeInt32
	DataTypeInt64
	DataTypeFP16
	DataTypeFP32
	DataTypeFP64
	DataTypeString
)

var configStrings = map[DataType]string{
	DataTypeInvalid: "TYPE_INVALID",
	DataTypeBool:    "TYPE_BOOL",
	DataTypeUint8:   "TYPE_UINT8",
	DataTypeUint16:  "TYPE_UINT16",
	DataTypeUint32:  "TYPE_UINT32",
	DataTypeUint64:  "TYPE_UINT64",
	DataTypeInt8:    "TYPE_INT8",
	DataTypeInt16:   "TYPE_INT16",
	DataTypeInt32:   "TYPE_INT32",
	DataTypeInt64:   "TYPE_INT64",
	DataTypeFP16:    "TYPE_FP16",
	DataTypeFP32:    "TYPE_FP32",
	DataTypeFP64:    "TYPE_FP64",
	DataTypeString:  "TYPE_STRING",
}

var configTypes = func() map[string]DataType {
	m := make(map[string]DataType, len(configStrings))
	for dt, s := range configStrings {
		m[s] = dt
	}
	return m
}()

// FromConfigString maps a model-configuration symbolic type name to the
// native data type. Any unrecognized name maps to DataTypeInvalid, never to
// a default.
func FromConfigString(s string) DataType {
	if dt, ok := configTypes[s]; ok {
		return dt
	}
	return DataTypeInvalid
}

// ConfigString returns the model-configuration symbolic name for d.
func (d DataType) ConfigString() string {
	if s, ok := configStrings[d]; ok {
		return s
	}
	return "TYPE_INVALID"
}

func (d DataType) String() string {
	return d.ConfigString()
}

// Size returns the per-element byte size, or 0 for variable-length and
// invalid types.
func (d DataType) Size() int {
	switch d {
	case DataTypeBool, DataTypeUint8, DataTypeInt8:
		return 1
	case DataTypeUint16, DataTypeInt16, DataTypeFP16:
		return 2
	case DataTypeUint32, DataTypeInt32, DataTypeFP32:
		return 4
	case DataTypeUint64, DataTypeInt64, DataTypeFP64:
		return 8
	default:
		return 0
	}
}

// IsValid reports whether d names a concrete type.
func (d DataType) IsValid() bool {
	return d != DataTypeInvalid
}

// CompareConfigDataType reports whether the native type of a model tensor
// matches a configuration-declared symbolic type. An unknown symbolic name
// never matches.
func CompareConfigDataType(native DataType, configType string) bool {
	ct := FromConfigString(configType)
	if ct == DataTypeInvalid {
		return false
	}
	return native == ct
}
