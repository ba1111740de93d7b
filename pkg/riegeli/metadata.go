package riegeli

import (
	"github.com/gogo/protobuf/proto"
	"github.com/gogo/protobuf/protoc-gen-gogo/descriptor"

	"github.com/breakds/riegeli/pkg/riegeli/internal/rstatus"
	"github.com/breakds/riegeli/pkg/riegeli/internal/varint"
)

// RecordsMetadata describes the records stored in a file: the fully
// qualified name of their message type, and the set of file descriptors
// needed to interpret it (spec §3, "RecordsMetadata").
//
// On the wire, RecordsMetadata is itself a small protobuf message (field 1:
// record_type_name string, field 2: repeated file_descriptor
// FileDescriptorProto). Rather than depend on generated code for a
// two-field wrapper, parseRecordsMetadata walks its wire format directly
// and hands each embedded descriptor to gogo/protobuf's real
// FileDescriptorProto type.
type RecordsMetadata struct {
	RecordTypeName string
	FileDescriptor []*descriptor.FileDescriptorProto
}

const (
	metadataFieldRecordTypeName = 1
	metadataFieldFileDescriptor = 2
)

// parseRecordsMetadata decodes a RecordsMetadata message from its raw
// protobuf wire bytes (spec §4.G, "ReadMetadata").
func parseRecordsMetadata(data []byte) (RecordsMetadata, error) {
	var out RecordsMetadata
	for len(data) > 0 {
		fieldNum, wireType, n, err := consumeTag(data)
		if err != nil {
			return RecordsMetadata{}, err
		}
		data = data[n:]

		switch fieldNum {
		case metadataFieldRecordTypeName:
			s, rest, err := consumeLengthDelimited(data, wireType)
			if err != nil {
				return RecordsMetadata{}, err
			}
			out.RecordTypeName = string(s)
			data = rest

		case metadataFieldFileDescriptor:
			b, rest, err := consumeLengthDelimited(data, wireType)
			if err != nil {
				return RecordsMetadata{}, err
			}
			fd := &descriptor.FileDescriptorProto{}
			if err := proto.Unmarshal(b, fd); err != nil {
				return RecordsMetadata{}, rstatus.Wrap(rstatus.DataLoss, err, "parsing embedded FileDescriptorProto")
			}
			out.FileDescriptor = append(out.FileDescriptor, fd)
			data = rest

		default:
			rest, err := skipField(data, wireType)
			if err != nil {
				return RecordsMetadata{}, err
			}
			data = rest
		}
	}
	return out, nil
}

// consumeTag reads a protobuf field tag (field number + wire type).
func consumeTag(data []byte) (fieldNum uint64, wireType byte, n int, err error) {
	tag, n, ok := varint.ReadFromBytes(data)
	if !ok {
		return 0, 0, 0, rstatus.New(rstatus.DataLoss, "malformed RecordsMetadata tag")
	}
	return tag >> 3, byte(tag & 7), n, nil
}

func consumeLengthDelimited(data []byte, wireType byte) (value []byte, rest []byte, err error) {
	if wireType != 2 {
		return nil, nil, rstatus.New(rstatus.DataLoss, "RecordsMetadata field has unexpected wire type %d", wireType)
	}
	length, n, ok := varint.ReadFromBytes(data)
	if !ok || n+int(length) > len(data) {
		return nil, nil, rstatus.New(rstatus.DataLoss, "malformed RecordsMetadata length-delimited field")
	}
	return data[n : n+int(length)], data[n+int(length):], nil
}

func skipField(data []byte, wireType byte) ([]byte, error) {
	switch wireType {
	case 0: // varint
		_, n, ok := varint.ReadFromBytes(data)
		if !ok {
			return nil, rstatus.New(rstatus.DataLoss, "malformed RecordsMetadata varint field")
		}
		return data[n:], nil
	case 1: // fixed64
		if len(data) < 8 {
			return nil, rstatus.New(rstatus.DataLoss, "truncated RecordsMetadata fixed64 field")
		}
		return data[8:], nil
	case 2: // length-delimited
		_, rest, err := consumeLengthDelimited(data, wireType)
		return rest, err
	case 5: // fixed32
		if len(data) < 4 {
			return nil, rstatus.New(rstatus.DataLoss, "truncated RecordsMetadata fixed32 field")
		}
		return data[4:], nil
	default:
		return nil, rstatus.New(rstatus.DataLoss, "RecordsMetadata field has unknown wire type %d", wireType)
	}
}
