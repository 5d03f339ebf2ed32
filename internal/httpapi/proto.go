package httpapi

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// maxRequestBody caps the request body size for both protobuf and JSON
// payloads. A roster upload is the largest document.
const maxRequestBody = 1 << 20

const protobufContentType = "application/x-protobuf"

// isProtobuf returns true if the request's Content-Type indicates a
// protobuf payload.
func isProtobuf(r *http.Request) bool {
	ct := r.Header.Get("Content-Type")
	return ct == protobufContentType ||
		ct == "application/protobuf" ||
		ct == "application/octet-stream"
}

// wantsProtobuf reports whether the response should be protobuf: asked for
// in Accept, or implied by a protobuf request with no Accept header.
func wantsProtobuf(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	if accept == "" {
		return isProtobuf(r)
	}
	return strings.Contains(accept, protobufContentType) ||
		strings.Contains(accept, "application/protobuf")
}

// readProto reads the request body and unmarshals it into msg.
func readProto(r *http.Request, msg proto.Message) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
	if err != nil {
		return err
	}
	return proto.Unmarshal(body, msg)
}

// writeProto marshals msg and writes it with the given HTTP status.
func writeProto(w http.ResponseWriter, status int, msg proto.Message) {
	data, err := proto.Marshal(msg)
	if err != nil {
		// Fall back to a plain-text error if marshalling fails.
		http.Error(w, "proto marshal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", protobufContentType)
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// decodeBody reads a JSON document, or a google.protobuf.Struct carrying
// the same document, into v. Unknown fields are rejected.
func decodeBody(r *http.Request, v any) error {
	var body io.Reader = io.LimitReader(r.Body, maxRequestBody)
	if isProtobuf(r) {
		var doc structpb.Struct
		if err := readProto(r, &doc); err != nil {
			return err
		}
		data, err := protojson.Marshal(&doc)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// respond writes v as JSON, or as a google.protobuf.Value holding the same
// document when the client asked for protobuf.
func respond(w http.ResponseWriter, r *http.Request, status int, v any) {
	if !wantsProtobuf(r) {
		writeJSON(w, status, v)
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "marshal error", http.StatusInternalServerError)
		return
	}
	var doc structpb.Value
	if err := protojson.Unmarshal(data, &doc); err != nil {
		http.Error(w, "proto convert error", http.StatusInternalServerError)
		return
	}
	writeProto(w, status, &doc)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
