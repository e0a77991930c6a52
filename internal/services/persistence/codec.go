package persistence

import (
	"encoding/json"
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/LeonardoBeccarini/iotmonitor/internal/model"
)

// Codec serializza lo stato su byte.
type Codec interface {
	Name() string
	Marshal(state model.NetworkState) ([]byte, error)
	Unmarshal(data []byte, state *model.NetworkState) error
}

func CodecByName(name string) (Codec, error) {
	switch name {
	case "", "json":
		return JSONCodec{}, nil
	case "proto":
		return ProtoCodec{}, nil
	default:
		return nil, fmt.Errorf("persistence: unknown codec %q", name)
	}
}

type JSONCodec struct{}

func (JSONCodec) Name() string { return "json" }

func (JSONCodec) Marshal(state model.NetworkState) ([]byte, error) {
	return json.MarshalIndent(state, "", "  ")
}

func (JSONCodec) Unmarshal(data []byte, state *model.NetworkState) error {
	return json.Unmarshal(data, state)
}

// ProtoCodec scrive lo stato come google.protobuf.Struct in formato binario.
type ProtoCodec struct{}

func (ProtoCodec) Name() string { return "proto" }

func (ProtoCodec) Marshal(state model.NetworkState) ([]byte, error) {
	raw, err := json.Marshal(state)
	if err != nil {
		return nil, err
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	s, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, err
	}
	return proto.Marshal(s)
}

func (ProtoCodec) Unmarshal(data []byte, state *model.NetworkState) error {
	var s structpb.Struct
	if err := proto.Unmarshal(data, &s); err != nil {
		return err
	}
	raw, err := json.Marshal(s.AsMap())
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, state)
}
