package grpc

import (
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
)

const protoPackage = "secwaf"

// Message descriptors of secwaf/inspector.proto.
var (
	headerPairDesc      protoreflect.MessageDescriptor
	inspectRequestDesc  protoreflect.MessageDescriptor
	inspectResponseDesc protoreflect.MessageDescriptor
)

func init() {
	fd, err := protodesc.NewFile(inspectorFileDescriptor(), new(protoregistry.Files))
	if err != nil {
		panic(fmt.Sprintf("grpc: invalid inspector schema: %v", err))
	}

	msgs := fd.Messages()
	headerPairDesc = msgs.ByName("HeaderPair")
	inspectRequestDesc = msgs.ByName("InspectRequest")
	inspectResponseDesc = msgs.ByName("InspectResponse")
}

// inspectorFileDescriptor is the schema of the Inspector service, as protoc would produce it for:
//
//	syntax = "proto2";
//	package secwaf;
//
//	message HeaderPair {
//	  optional string key = 1;
//	  optional string value = 2;
//	}
//
//	message InspectRequest {
//	  optional string method = 1;
//	  optional string uri = 2;
//	  optional string query_string = 3;
//	  optional string remote_addr = 4;
//	  repeated HeaderPair headers = 5;
//	  optional bytes body = 6;
//	  optional string transaction_id = 7;
//	}
//
//	message InspectResponse {
//	  optional string decision = 1;
//	  optional bool matched = 2;
//	  optional int32 rule_id = 3;
//	  optional string anomaly = 4;
//	  optional string target = 5;
//	  optional string message = 6;
//	  optional bytes matched_string = 7;
//	  repeated int32 group_ids = 8;
//	  optional string processing_error = 9;
//	}
//
//	service Inspector {
//	  rpc Inspect(InspectRequest) returns (InspectResponse);
//	}
//
// proto2 does not require string fields to be valid UTF-8, which request lines and headers need not be.
func inspectorFileDescriptor() *descriptorpb.FileDescriptorProto {
	const (
		optional = descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL
		repeated = descriptorpb.FieldDescriptorProto_LABEL_REPEATED

		tString  = descriptorpb.FieldDescriptorProto_TYPE_STRING
		tBytes   = descriptorpb.FieldDescriptorProto_TYPE_BYTES
		tBool    = descriptorpb.FieldDescriptorProto_TYPE_BOOL
		tInt32   = descriptorpb.FieldDescriptorProto_TYPE_INT32
		tMessage = descriptorpb.FieldDescriptorProto_TYPE_MESSAGE
	)

	field := func(name string, number int32, label descriptorpb.FieldDescriptorProto_Label, typ descriptorpb.FieldDescriptorProto_Type) *descriptorpb.FieldDescriptorProto {
		return &descriptorpb.FieldDescriptorProto{
			Name:   proto.String(name),
			Number: proto.Int32(number),
			Label:  label.Enum(),
			Type:   typ.Enum(),
		}
	}

	headers := field("headers", 5, repeated, tMessage)
	headers.TypeName = proto.String("." + protoPackage + ".HeaderPair")

	return &descriptorpb.FileDescriptorProto{
		Name:    proto.String("secwaf/inspector.proto"),
		Package: proto.String(protoPackage),
		Syntax:  proto.String("proto2"),
		MessageType: []*descriptorpb.DescriptorProto{
			{
				Name: proto.String("HeaderPair"),
				Field: []*descriptorpb.FieldDescriptorProto{
					field("key", 1, optional, tString),
					field("value", 2, optional, tString),
				},
			},
			{
				Name: proto.String("InspectRequest"),
				Field: []*descriptorpb.FieldDescriptorProto{
					field("method", 1, optional, tString),
					field("uri", 2, optional, tString),
					field("query_string", 3, optional, tString),
					field("remote_addr", 4, optional, tString),
					headers,
					field("body", 6, optional, tBytes),
					field("transaction_id", 7, optional, tString),
				},
			},
			{
				Name: proto.String("InspectResponse"),
				Field: []*descriptorpb.FieldDescriptorProto{
					field("decision", 1, optional, tString),
					field("matched", 2, optional, tBool),
					field("rule_id", 3, optional, tInt32),
					field("anomaly", 4, optional, tString),
					field("target", 5, optional, tString),
					field("message", 6, optional, tString),
					field("matched_string", 7, optional, tBytes),
					field("group_ids", 8, repeated, tInt32),
					field("processing_error", 9, optional, tString),
				},
			},
		},
		Service: []*descriptorpb.ServiceDescriptorProto{
			{
				Name: proto.String("Inspector"),
				Method: []*descriptorpb.MethodDescriptorProto{
					{
						Name:       proto.String(inspectMethodName),
						InputType:  proto.String("." + protoPackage + ".InspectRequest"),
						OutputType: proto.String("." + protoPackage + ".InspectResponse"),
					},
				},
			},
		},
	}
}
