package monitor

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestIsSDKMessage(t *testing.T) {
	tests := []struct {
		msg  string
		want bool
	}{
		{"🚀 starting", true},
		{"✅ done", true},
		{"CXGaia ready", true},
		{"WebIntercept attached", true},
		{"Initializing widget", true},
		{"SDK script loaded", true},
		{"sdk version 2", false},
		{"react rendered", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, IsSDKMessage(tt.msg)); diff != "" {
				t.Errorf("IsSDKMessage(%q) mismatch (-want +got):\n%s", tt.msg, diff)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		msg  string
		want EventType
	}{
		{"Initializing SDK", EventInitialization},
		{"Fetching survey definition", EventAPICall},
		{"API call to /v1/surveys", EventAPICall},
		{"Received payload", EventAPIResponse},
		{"Scroll trigger fired", EventTriggered},
		{"Showing survey", EventSurveyDisplay},
		{"Survey closed", EventSurveyHidden},
		{"Request failed", EventError},
		{"Writing localStorage", EventStorage},
		{"URL matched rule", EventURLMatch},
		{"hello", EventGeneral},
		// earlier groups win
		{"initialization error", EventInitialization},
		{"event display", EventTriggered},
	}
	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, Classify(tt.msg)); diff != "" {
				t.Errorf("Classify(%q) mismatch (-want +got):\n%s", tt.msg, diff)
			}
		})
	}
}

func TestSplitEmoji(t *testing.T) {
	tests := []struct {
		in        string
		wantEmoji string
		wantRest  string
	}{
		{"🎯 Targeting ready 📊", "🎯", "Targeting ready"},
		{"no emoji here", "", "no emoji here"},
		{"✅ kept", "", "✅ kept"},
		{"", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			emoji, rest := SplitEmoji(tt.in)
			if diff := cmp.Diff([]string{tt.wantEmoji, tt.wantRest}, []string{emoji, rest}); diff != "" {
				t.Errorf("SplitEmoji(%q) mismatch (-want +got):\n%s", tt.in, diff)
			}
		})
	}
}
