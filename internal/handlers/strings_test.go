package handlers

import (
	"context"
	"testing"

	"stencil/kafka"
)

func TestStringHandlerVerdicts(t *testing.T) {
	h := NewStringHandler("notes")

	cases := []struct {
		name  string
		value []byte
		want  kafka.MessageAction
	}{
		{"plain text", []byte("hello"), kafka.ActionConsume},
		{"invalid utf-8", []byte{0xff, 0xfe, 0x01}, kafka.ActionReject},
		{"blank", []byte(""), kafka.ActionReject},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			action, err := h.Handle(context.Background(), &kafka.Message{Topic: "notes", Value: tc.value})
			if err != nil {
				t.Fatalf("Handle: %v", err)
			}
			if action != tc.want {
				t.Fatalf("Handle = %v, want %v", action, tc.want)
			}
		})
	}
}

func TestStringHandlerTransformTrims(t *testing.T) {
	h := NewStringHandler("notes")

	out, err := h.Transform([]byte("  hello\n"))
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	if string(out) != "hello" {
		t.Fatalf("Transform = %q, want %q", out, "hello")
	}

	// A whitespace-only payload trims down to blank and gets rejected.
	out, err = h.Transform([]byte(" \n\t "))
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	action, err := h.Handle(context.Background(), &kafka.Message{Topic: "notes", Value: out})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if action != kafka.ActionReject {
		t.Fatalf("Handle = %v, want ActionReject", action)
	}
}
