package mvt

import "errors"

var (
	ErrTruncatedInput            = errors.New("mvt: truncated input")
	ErrMalformedTag              = errors.New("mvt: malformed tag")
	ErrMissingRequiredField      = errors.New("mvt: missing required field")
	ErrMalformedFeature          = errors.New("mvt: malformed feature")
	ErrDictionaryIndexOutOfRange = errors.New("mvt: dictionary index out of range")
	ErrMalformedGeometry         = errors.New("mvt: malformed geometry")
	ErrLayerNotFound             = errors.New("mvt: layer not found")
	ErrIndexOutOfRange           = errors.New("mvt: index out of range")
)

var errorKinds = []struct {
	err  error
	kind string
}{
	{ErrTruncatedInput, "truncated_input"},
	{ErrMalformedTag, "malformed_tag"},
	{ErrMissingRequiredField, "missing_required_field"},
	{ErrMalformedFeature, "malformed_feature"},
	{ErrDictionaryIndexOutOfRange, "dictionary_index_out_of_range"},
	{ErrMalformedGeometry, "malformed_geometry"},
	{ErrLayerNotFound, "layer_not_found"},
	{ErrIndexOutOfRange, "index_out_of_range"},
}

// ErrorKind returns a stable label for err, suitable for metric labels.
// Geometry errors caused by a truncated stream report as malformed_geometry.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, ErrMalformedGeometry) {
		return "malformed_geometry"
	}
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return "other"
}
