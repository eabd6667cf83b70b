package interact

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

func testArbiter() *Arbiter {
	return &Arbiter{
		NavTimeout:     200 * time.Millisecond,
		NewPageTimeout: 100 * time.Millisecond,
		LoadTimeout:    50 * time.Millisecond,
	}
}

func blockedSamePage(ctx context.Context) bool {
	<-ctx.Done()
	return false
}

func blockedNewPage(ctx context.Context) (*rod.Page, bool) {
	<-ctx.Done()
	return nil, false
}

func TestNewPageTarget_SkipsNonPageTargets(t *testing.T) {
	// WHAT: Only a target-created event of type "page" qualifies as a pop-up;
	// iframe and worker targets report false so the event listener keeps going.
	// WHY: Portal navigation routinely spawns OOPIF iframes and service
	// workers first. If one of those ended the wait, a real pop-up arriving
	// moments later would be misread as no navigation at all.
	created := func(typ string) *proto.TargetTargetCreated {
		return &proto.TargetTargetCreated{TargetInfo: &proto.TargetTargetInfo{
			TargetID: "t1",
			Type:     proto.TargetTargetInfoType(typ),
		}}
	}

	for _, typ := range []string{"iframe", "service_worker", "background_page"} {
		if _, ok := newPageTarget(created(typ)); ok {
			t.Errorf("%s target accepted as a pop-up page", typ)
		}
	}
	if _, ok := newPageTarget(&proto.TargetTargetCreated{}); ok {
		t.Error("event without target info accepted")
	}
	if _, ok := newPageTarget(nil); ok {
		t.Error("nil event accepted")
	}

	id, ok := newPageTarget(created("page"))
	if !ok || id != "t1" {
		t.Fatalf("page target rejected: id=%q ok=%v", id, ok)
	}
}

func TestArbiter_SamePageNavigationWins(t *testing.T) {
	// WHAT: When the triggering context navigates, the outcome keeps that
	// context as the current page.
	prior := &rod.Page{}
	a := testArbiter()

	out := a.resolve(prior, Waiters{
		SamePage: func(ctx context.Context) bool { return true },
		NewPage:  blockedNewPage,
	}, func() error { return nil })

	if out.Kind != KindSamePage {
		t.Fatalf("Kind = %v, want same-page", out.Kind)
	}
	if out.Page != prior {
		t.Error("outcome page is not the prior context")
	}
}

func TestArbiter_NewPageWins(t *testing.T) {
	// WHAT: A new-tab creation resolves to the new page, not the trigger's context.
	prior := &rod.Page{}
	opened := &rod.Page{}
	a := testArbiter()
	// Skip the settle ladder: the fake page has no transport behind it.
	a.LoadTimeout = 1

	out := a.resolve(prior, Waiters{
		SamePage: blockedSamePage,
		NewPage: func(ctx context.Context) (*rod.Page, bool) {
			return opened, true
		},
	}, func() error { return nil })

	if out.Kind != KindNewPage {
		t.Fatalf("Kind = %v, want new-page", out.Kind)
	}
	if out.Page != opened {
		t.Error("outcome page is not the opened page")
	}
}

func TestArbiter_TimeoutKeepsPriorPage(t *testing.T) {
	// WHAT: When nothing fires before the budget, the prior page is kept and
	// the outcome marked as no-navigation.
	// WHY: The portal sometimes updates in place without any detectable
	// navigation event; the caller must get a defined, non-throwing result.
	prior := &rod.Page{}
	a := testArbiter()

	out := a.resolve(prior, Waiters{
		SamePage: blockedSamePage,
		NewPage:  blockedNewPage,
	}, func() error { return nil })

	if out.Kind != KindNone {
		t.Fatalf("Kind = %v, want none", out.Kind)
	}
	if out.Page != prior {
		t.Error("outcome page is not the prior context")
	}
}

func TestArbiter_TriggerFailureIsSoft(t *testing.T) {
	// WHAT: A trigger whose click (and scripted retry) failed resolves to the
	// prior page instead of raising.
	prior := &rod.Page{}
	a := testArbiter()

	out := a.resolve(prior, Waiters{
		SamePage: blockedSamePage,
		NewPage:  blockedNewPage,
	}, func() error { return errors.New("element detached") })

	if out.Kind != KindNone || out.Page != prior {
		t.Fatalf("got %v/%p, want none/prior", out.Kind, out.Page)
	}
}

func TestArbiter_WaitersArmedBeforeTrigger(t *testing.T) {
	// WHAT: The waiters start before the trigger runs, so an instant
	// navigation is not missed.
	prior := &rod.Page{}
	a := testArbiter()

	armed := make(chan struct{})
	triggered := false

	out := a.resolve(prior, Waiters{
		SamePage: func(ctx context.Context) bool {
			close(armed)
			<-ctx.Done()
			return false
		},
		NewPage: blockedNewPage,
	}, func() error {
		select {
		case <-armed:
		case <-time.After(time.Second):
			t.Error("trigger ran before the same-page waiter was armed")
		}
		triggered = true
		return nil
	})

	if !triggered {
		t.Fatal("trigger never ran")
	}
	if out.Kind != KindNone {
		t.Fatalf("Kind = %v", out.Kind)
	}
}
