package grpc

import (
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"
)

// Fields are written in number order, so equal messages encode to equal bytes.
var marshalOptions = proto.MarshalOptions{Deterministic: true}

// codec encodes the Inspector messages in the protobuf wire format of secwaf/inspector.proto.
// Any other proto.Message is passed through, so the codec can replace the default one for a whole server.
type codec struct{}

func (codec) Name() string {
	return "proto"
}

func (codec) Marshal(v any) ([]byte, error) {
	switch m := v.(type) {
	case *InspectRequest:
		return marshalOptions.Marshal(m.toProto())
	case *InspectResponse:
		return marshalOptions.Marshal(m.toProto())
	case proto.Message:
		return marshalOptions.Marshal(m)
	}
	return nil, fmt.Errorf("grpc: cannot marshal %T", v)
}

func (codec) Unmarshal(data []byte, v any) error {
	switch m := v.(type) {
	case *InspectRequest:
		pm := dynamicpb.NewMessage(inspectRequestDesc)
		if err := proto.Unmarshal(data, pm); err != nil {
			return err
		}
		m.fromProto(pm)
		return nil
	case *InspectResponse:
		pm := dynamicpb.NewMessage(inspectResponseDesc)
		if err := proto.Unmarshal(data, pm); err != nil {
			return err
		}
		m.fromProto(pm)
		return nil
	case proto.Message:
		return proto.Unmarshal(data, m)
	}
	return fmt.Errorf("grpc: cannot unmarshal into %T", v)
}

func (r *InspectRequest) toProto() *dynamicpb.Message {
	m := dynamicpb.NewMessage(inspectRequestDesc)
	setString(m, "method", r.Method)
	setString(m, "uri", r.URI)
	setString(m, "query_string", r.QueryString)
	setString(m, "remote_addr", r.RemoteAddr)
	setString(m, "transaction_id", r.TransactionID)
	if len(r.Body) > 0 {
		m.Set(fieldOf(m, "body"), protoreflect.ValueOfBytes(r.Body))
	}

	if len(r.Headers) > 0 {
		l := m.Mutable(fieldOf(m, "headers")).List()
		for _, h := range r.Headers {
			hm := dynamicpb.NewMessage(headerPairDesc)
			setString(hm, "key", h.Key)
			setString(hm, "value", h.Value)
			l.Append(protoreflect.ValueOfMessage(hm))
		}
	}
	return m
}

func (r *InspectRequest) fromProto(m *dynamicpb.Message) {
	r.Method = getString(m, "method")
	r.URI = getString(m, "uri")
	r.QueryString = getString(m, "query_string")
	r.RemoteAddr = getString(m, "remote_addr")
	r.TransactionID = getString(m, "transaction_id")
	if b := m.Get(fieldOf(m, "body")).Bytes(); len(b) > 0 {
		r.Body = append([]byte(nil), b...)
	}

	l := m.Get(fieldOf(m, "headers")).List()
	for i := 0; i < l.Len(); i++ {
		hm := l.Get(i).Message()
		r.Headers = append(r.Headers, HeaderPair{
			Key:   hm.Get(hm.Descriptor().Fields().ByName("key")).String(),
			Value: hm.Get(hm.Descriptor().Fields().ByName("value")).String(),
		})
	}
}

func (r *InspectResponse) toProto() *dynamicpb.Message {
	m := dynamicpb.NewMessage(inspectResponseDesc)
	setString(m, "decision", r.Decision)
	if r.Matched {
		m.Set(fieldOf(m, "matched"), protoreflect.ValueOfBool(true))
	}
	if r.RuleID != 0 {
		m.Set(fieldOf(m, "rule_id"), protoreflect.ValueOfInt32(int32(r.RuleID)))
	}
	setString(m, "anomaly", r.Anomaly)
	setString(m, "target", r.Target)
	setString(m, "message", r.Message)
	if r.MatchedString != "" {
		m.Set(fieldOf(m, "matched_string"), protoreflect.ValueOfBytes([]byte(r.MatchedString)))
	}
	setString(m, "processing_error", r.ProcessingError)

	if len(r.GroupIDs) > 0 {
		l := m.Mutable(fieldOf(m, "group_ids")).List()
		for _, id := range r.GroupIDs {
			l.Append(protoreflect.ValueOfInt32(int32(id)))
		}
	}
	return m
}

func (r *InspectResponse) fromProto(m *dynamicpb.Message) {
	r.Decision = getString(m, "decision")
	r.Matched = m.Get(fieldOf(m, "matched")).Bool()
	r.RuleID = int(m.Get(fieldOf(m, "rule_id")).Int())
	r.Anomaly = getString(m, "anomaly")
	r.Target = getString(m, "target")
	r.Message = getString(m, "message")
	r.MatchedString = string(m.Get(fieldOf(m, "matched_string")).Bytes())
	r.ProcessingError = getString(m, "processing_error")

	l := m.Get(fieldOf(m, "group_ids")).List()
	for i := 0; i < l.Len(); i++ {
		r.GroupIDs = append(r.GroupIDs, int(l.Get(i).Int()))
	}
}

func fieldOf(m *dynamicpb.Message, name protoreflect.Name) protoreflect.FieldDescriptor {
	return m.Descriptor().Fields().ByName(name)
}

// setString leaves the field unset for the empty string.
func setString(m *dynamicpb.Message, name protoreflect.Name, v string) {
	if v != "" {
		m.Set(fieldOf(m, name), protoreflect.ValueOfString(v))
	}
}

func getString(m *dynamicpb.Message, name protoreflect.Name) string {
	return m.Get(fieldOf(m, name)).String()
}
