package platform

import "testing"

func TestSignatureFor(t *testing.T) {
	sig := SignatureFor(Instagram)
	if !sig.Carousel {
		t.Error("instagram signature should support carousels")
	}
	if !sig.Requires("image") {
		t.Error("instagram signature should require an image")
	}
	if sig.AuthorPlace != AuthorSeparate {
		t.Errorf("instagram author placement = %q, want %q", sig.AuthorPlace, AuthorSeparate)
	}
}

func TestSignatureForUnknownFallsBack(t *testing.T) {
	sig := SignatureFor(Platform("gopherweb"))
	if sig.Platform != Generic {
		t.Errorf("fallback signature platform = %q, want %q", sig.Platform, Generic)
	}
	if sig.Carousel {
		t.Error("generic signature must not claim carousel support")
	}
	if sig.AuthorPlace != AuthorNone {
		t.Error("generic signature must not impose author placement")
	}
}

func TestEveryKnownPlatformHasTitleBound(t *testing.T) {
	for p := range signatures {
		sig := SignatureFor(p)
		if sig.TitleMaxLen <= 0 {
			t.Errorf("%q signature has no title length bound", p)
		}
	}
}
