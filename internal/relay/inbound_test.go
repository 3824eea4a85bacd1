package relay

import (
	"context"
	"errors"
	"testing"
	"time"

	"pagerbridge/internal/bus"
	"pagerbridge/internal/domain"
	"pagerbridge/internal/pager"
)

func newTestInbound(d Dispatcher, m MediaStorer, a AvatarResolver) *Inbound {
	return NewInbound(InboundConfig{
		Dispatcher: d,
		Media:      m,
		Avatars:    a,
		Logger:     testLogger(),
	})
}

func TestHandleEvent_TextOnly(t *testing.T) {
	d := &fakeDispatcher{}
	in := newTestInbound(d, &fakeMedia{}, &fakeAvatars{})

	in.HandleEvent(context.Background(), domain.Event{
		IsPrivate: true,
		PeerID:    555,
		MessageID: 17,
		Text:      "hi",
		Sender:    &domain.Sender{ID: 555},
	})

	got := d.dispatched()
	if len(got) != 1 {
		t.Fatalf("expected 1 dispatch, got %d", len(got))
	}
	p := got[0]
	if p.Event != pager.EventMessageCreated {
		t.Errorf("event = %s", p.Event)
	}
	if p.Client.ExternalID != "tg_user:555" {
		t.Errorf("client externalId = %s", p.Client.ExternalID)
	}
	if p.Client.Name != "" || p.Client.ImageURL != "" {
		t.Errorf("name/imageUrl should be empty: %+v", p.Client)
	}
	if p.Message.ExternalID != "tg_msg:17" {
		t.Errorf("message externalId = %s", p.Message.ExternalID)
	}
	if p.Message.Direction != "incoming" {
		t.Errorf("direction = %s", p.Message.Direction)
	}
	if p.Message.Text != "hi" {
		t.Errorf("text = %s", p.Message.Text)
	}
	if len(p.Message.Attachments) != 0 {
		t.Errorf("attachments should be empty, got %d", len(p.Message.Attachments))
	}
}

func TestHandleEvent_GroupEventDropped(t *testing.T) {
	d := &fakeDispatcher{}
	in := newTestInbound(d, &fakeMedia{}, &fakeAvatars{})

	in.HandleEvent(context.Background(), domain.Event{
		IsPrivate: false,
		PeerID:    555,
		MessageID: 1,
		Text:      "group chatter",
	})

	if len(d.dispatched()) != 0 {
		t.Error("group events must never reach the webhook")
	}
}

func TestHandleEvent_OutgoingDirection(t *testing.T) {
	d := &fakeDispatcher{}
	in := newTestInbound(d, &fakeMedia{}, &fakeAvatars{})

	in.HandleEvent(context.Background(), domain.Event{
		IsPrivate: true,
		PeerID:    555,
		MessageID: 2,
		Outgoing:  true,
		Text:      "me too",
	})

	if got := d.dispatched()[0].Message.Direction; got != "outgoing" {
		t.Errorf("direction = %s", got)
	}
}

func TestHandleEvent_NameFallback(t *testing.T) {
	tests := []struct {
		name   string
		sender *domain.Sender
		want   string
	}{
		{"first name wins", &domain.Sender{FirstName: "Olena", Username: "olena42"}, "Olena"},
		{"username fallback", &domain.Sender{Username: "olena42"}, "olena42"},
		{"nothing known", &domain.Sender{}, ""},
		{"nil sender", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &fakeDispatcher{}
			in := newTestInbound(d, &fakeMedia{}, &fakeAvatars{})
			in.HandleEvent(context.Background(), domain.Event{
				IsPrivate: true, PeerID: 1, MessageID: 1, Sender: tt.sender,
			})
			if got := d.dispatched()[0].Client.Name; got != tt.want {
				t.Errorf("name = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestHandleEvent_AvatarIncluded(t *testing.T) {
	d := &fakeDispatcher{}
	in := newTestInbound(d, &fakeMedia{}, &fakeAvatars{url: "https://x/avatars/avatar_555.jpg"})

	in.HandleEvent(context.Background(), domain.Event{IsPrivate: true, PeerID: 555, MessageID: 1})

	if got := d.dispatched()[0].Client.ImageURL; got != "https://x/avatars/avatar_555.jpg" {
		t.Errorf("imageUrl = %s", got)
	}
}

func TestHandleEvent_MediaAttached(t *testing.T) {
	d := &fakeDispatcher{}
	m := &fakeMedia{inbound: []domain.Attachment{{Kind: domain.AttachmentImage, URL: "https://x/media/a.jpg"}}}
	in := newTestInbound(d, m, &fakeAvatars{})

	in.HandleEvent(context.Background(), domain.Event{
		IsPrivate: true,
		PeerID:    555,
		MessageID: 3,
		Media:     &domain.Media{Kind: domain.MediaPhoto, FileID: "f"},
	})

	atts := d.dispatched()[0].Message.Attachments
	if len(atts) != 1 || atts[0].Type != "image" || atts[0].Payload.URL != "https://x/media/a.jpg" {
		t.Errorf("unexpected attachments: %+v", atts)
	}
}

func TestHandleEvent_MediaFailureStillDispatchesText(t *testing.T) {
	d := &fakeDispatcher{}
	// fakeMedia with nil inbound simulates a failed download: empty list.
	in := newTestInbound(d, &fakeMedia{}, &fakeAvatars{})

	in.HandleEvent(context.Background(), domain.Event{
		IsPrivate: true,
		PeerID:    555,
		MessageID: 4,
		Text:      "caption",
		Media:     &domain.Media{Kind: domain.MediaPhoto, FileID: "broken"},
	})

	got := d.dispatched()
	if len(got) != 1 {
		t.Fatal("text must still dispatch when media fails")
	}
	if got[0].Message.Text != "caption" {
		t.Errorf("text = %s", got[0].Message.Text)
	}
	if len(got[0].Message.Attachments) != 0 {
		t.Errorf("attachments should be empty on media failure")
	}
}

func TestHandleEvent_DispatchFailureIsSwallowed(t *testing.T) {
	d := &fakeDispatcher{err: errors.New("pager down")}
	in := newTestInbound(d, &fakeMedia{}, &fakeAvatars{})

	// Must not panic and must not propagate.
	in.HandleEvent(context.Background(), domain.Event{IsPrivate: true, PeerID: 1, MessageID: 1, Text: "x"})
}

func TestRun_ProcessesBusEvents(t *testing.T) {
	d := &fakeDispatcher{done: make(chan struct{}, 10)}
	b := bus.New(10, testLogger())
	defer b.Close()

	in := NewInbound(InboundConfig{
		Bus:        b,
		Dispatcher: d,
		Media:      &fakeMedia{},
		Avatars:    &fakeAvatars{},
		Logger:     testLogger(),
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go in.Run(ctx)

	b.Publish(domain.Event{IsPrivate: true, PeerID: 7, MessageID: 1, Text: "a"})
	b.Publish(domain.Event{IsPrivate: true, PeerID: 7, MessageID: 2, Text: "b"})

	for i := 0; i < 2; i++ {
		select {
		case <-d.done:
		case <-time.After(2 * time.Second):
			t.Fatal("event not processed")
		}
	}
}
