package ir

import (
	"strings"

	"github.com/gomlx/gomlx/pkg/core/dtypes"
	"github.com/pkg/errors"
)

// SupportedPrecisions lists the dtypes accepted as force precision, in order of increasing width.
var SupportedPrecisions = []dtypes.DType{dtypes.Float16, dtypes.Float32}

// IsAbsentPrecision returns whether dtype represents an absent force precision.
func IsAbsentPrecision(dtype dtypes.DType) bool {
	return dtype == dtypes.InvalidDType
}

// IsSupportedPrecision returns whether dtype can be used as a force precision.
func IsSupportedPrecision(dtype dtypes.DType) bool {
	switch dtype {
	case dtypes.Float16, dtypes.Float32:
		return true
	default:
		return false
	}
}

// ParsePrecision converts a precision tag to its dtype.
//
// It accepts the short tags "FP16" and "FP32" (case-insensitive) and the dtype names "float16" and "float32".
func ParsePrecision(tag string) (dtypes.DType, error) {
	switch strings.ToLower(strings.TrimSpace(tag)) {
	case "fp16", "float16", "f16":
		return dtypes.Float16, nil
	case "fp32", "float32", "f32":
		return dtypes.Float32, nil
	default:
		return dtypes.InvalidDType, errors.Errorf("unsupported/unknown precision %q", tag)
	}
}

// PrecisionName returns the short tag of a precision ("FP16", "FP32"), or "" if absent.
func PrecisionName(dtype dtypes.DType) string {
	switch dtype {
	case dtypes.InvalidDType:
		return ""
	case dtypes.Float16:
		return "FP16"
	case dtypes.Float32:
		return "FP32"
	default:
		return dtype.String()
	}
}
