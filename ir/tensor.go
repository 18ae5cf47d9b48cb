package ir

import (
	"encoding/binary"
	"math"

	"github.com/gomlx/gomlx/pkg/core/dtypes"
	"github.com/gomlx/gomlx/pkg/core/tensors"
	"github.com/pkg/errors"
	"github.com/x448/float16"
)

// CloneValue returns a new tensor with the same shape and a copy of the contents of value.
// It returns nil for a nil (absent) value.
func CloneValue(value *tensors.Tensor) *tensors.Tensor {
	if value == nil {
		return nil
	}
	clone := tensors.FromShape(value.Shape())
	value.ConstBytes(func(src []byte) {
		clone.MutableBytes(func(dst []byte) {
			copy(dst, src)
		})
	})
	return clone
}

// ValueBytes returns a copy of the raw bytes of value, or nil if value is absent.
func ValueBytes(value *tensors.Tensor) []byte {
	if value == nil {
		return nil
	}
	var data []byte
	value.ConstBytes(func(src []byte) {
		data = append([]byte(nil), src...)
	})
	return data
}

// MaterializeValue returns the raw (little-endian) bytes of value converted to precision.
//
// If precision is absent or equal to the value dtype, the bytes are returned as is.
// Otherwise only float conversions towards a supported precision are implemented: Float32 or Float64 to Float16,
// and Float64 to Float32.
func MaterializeValue(value *tensors.Tensor, precision dtypes.DType) ([]byte, error) {
	if value == nil {
		return nil, errors.New("cannot materialize an absent value")
	}
	srcDType := value.Shape().DType
	if IsAbsentPrecision(precision) || precision == srcDType {
		return ValueBytes(value), nil
	}
	if !IsSupportedPrecision(precision) {
		return nil, errors.Errorf("unsupported force precision %s", precision)
	}

	switch {
	case precision == dtypes.Float16 && srcDType == dtypes.Float32:
		var data []byte
		tensors.ConstFlatData(value, func(flat []float32) {
			data = make([]byte, 2*len(flat))
			for ii, v := range flat {
				binary.LittleEndian.PutUint16(data[2*ii:], float16.Fromfloat32(v).Bits())
			}
		})
		return data, nil

	case precision == dtypes.Float16 && srcDType == dtypes.Float64:
		var data []byte
		tensors.ConstFlatData(value, func(flat []float64) {
			data = make([]byte, 2*len(flat))
			for ii, v := range flat {
				binary.LittleEndian.PutUint16(data[2*ii:], float16.Fromfloat32(float32(v)).Bits())
			}
		})
		return data, nil

	case precision == dtypes.Float32 && srcDType == dtypes.Float64:
		var data []byte
		tensors.ConstFlatData(value, func(flat []float64) {
			data = make([]byte, 4*len(flat))
			for ii, v := range flat {
				binary.LittleEndian.PutUint32(data[4*ii:], math.Float32bits(float32(v)))
			}
		})
		return data, nil
	}
	return nil, errors.Errorf("cannot materialize a %s value with precision %s", srcDType, PrecisionName(precision))
}

// ConstPayload resolves the materialization of the constant-producer op named constName: it finds its
// source data node, picks the forced precision (from the op, falling back to the source node) and returns
// the dtype the payload was materialized with and its bytes.
func (g *Graph) ConstPayload(constName string) (dtypes.DType, []byte, error) {
	n, found := g.nodes[constName]
	if !found {
		return dtypes.InvalidDType, nil, errors.Wrapf(ErrUnknownNode, "constant %q", constName)
	}
	op, ok := n.(*OpNode)
	if !ok || op.Type != OpConst {
		return dtypes.InvalidDType, nil, errors.Errorf("node %q is not a %s op", constName, OpConst)
	}
	in := g.inEdges[constName]
	if len(in) != 1 {
		return dtypes.InvalidDType, nil, errors.Errorf("%s op %q must have exactly one source, got %d", OpConst, constName, len(in))
	}
	src, ok := g.nodes[in[0].Src].(*DataNode)
	if !ok || !src.HasValue() {
		return dtypes.InvalidDType, nil, errors.Errorf("%s op %q source %q holds no value", OpConst, constName, in[0].Src)
	}

	precision := op.ForcePrecision
	if IsAbsentPrecision(precision) {
		precision = src.ForcePrecision
	}
	data, err := MaterializeValue(src.Value, precision)
	if err != nil {
		return dtypes.InvalidDType, nil, errors.WithMessagef(err, "while materializing %s op %q", OpConst, constName)
	}
	if IsAbsentPrecision(precision) {
		precision = src.Value.Shape().DType
	}
	return precision, data, nil
}
