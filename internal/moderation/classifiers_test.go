package moderation

import (
	"testing"
)

func textEvent(text string) *ContentEvent {
	return &ContentEvent{
		ChatID:    1,
		UserID:    2,
		TextSpans: []TextSpan{{Text: text, Tags: []SpanTag{SpanTagPlain}}},
	}
}

func urlEvent(urls ...string) *ContentEvent {
	ev := &ContentEvent{ChatID: 1, UserID: 2}
	for _, u := range urls {
		ev.TextSpans = append(ev.TextSpans, TextSpan{Text: u, Tags: []SpanTag{SpanTagURL}})
	}
	return ev
}

func TestClassifyText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		ev   *ContentEvent
		want bool
	}{
		{"plain text", textEvent("hello"), true},
		{"empty", &ContentEvent{ChatID: 1}, false},
		{"caption on media", &ContentEvent{
			ChatID:    1,
			MediaKind: MediaKindPhoto,
			TextSpans: []TextSpan{{Text: "caption", Tags: []SpanTag{SpanTagPlain}}},
		}, false},
		{"service event", &ContentEvent{
			ChatID:         1,
			IsServiceEvent: true,
			TextSpans:      []TextSpan{{Text: "joined", Tags: []SpanTag{SpanTagPlain}}},
		}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := classifyText(tt.ev, nil); got != tt.want {
				t.Fatalf("classifyText() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDiceVersusEmojiGame(t *testing.T) {
	t.Parallel()

	die := &ContentEvent{ChatID: 1, MediaKind: MediaKindDice, DiceEmoji: "🎲"}
	darts := &ContentEvent{ChatID: 1, MediaKind: MediaKindDice, DiceEmoji: "🎯"}

	if !classifyDice(die, nil) {
		t.Fatal("plain die should match dice")
	}
	if classifyDice(darts, nil) {
		t.Fatal("darts should not match dice")
	}
	if classifyEmojiGame(die, nil) {
		t.Fatal("plain die should not match emojigame")
	}
	if !classifyEmojiGame(darts, nil) {
		t.Fatal("darts should match emojigame")
	}
}

func TestClassifyLinkAllowlist(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		ev   *ContentEvent
		ectx *EvalContext
		want bool
	}{
		{
			name: "no allowlist means every link violates",
			ev:   urlEvent("https://example.com"),
			ectx: &EvalContext{},
			want: true,
		},
		{
			name: "exact url allowed",
			ev:   urlEvent("https://example.com/page"),
			ectx: &EvalContext{AllowedURLs: []string{"example.com/page"}},
			want: false,
		},
		{
			name: "scheme and www insensitive",
			ev:   urlEvent("http://www.Example.com/page/"),
			ectx: &EvalContext{AllowedURLs: []string{"https://example.com/page"}},
			want: false,
		},
		{
			name: "domain allows subdomains",
			ev:   urlEvent("https://docs.example.com/intro"),
			ectx: &EvalContext{AllowedDomains: []string{"example.com"}},
			want: false,
		},
		{
			name: "unrelated domain still violates",
			ev:   urlEvent("https://evil.com", "https://example.com"),
			ectx: &EvalContext{AllowedDomains: []string{"example.com"}},
			want: true,
		},
		{
			name: "suffix trick does not pass",
			ev:   urlEvent("https://notexample.com"),
			ectx: &EvalContext{AllowedDomains: []string{"example.com"}},
			want: true,
		},
		{
			name: "text_link target is checked, not visible text",
			ev: &ContentEvent{ChatID: 1, TextSpans: []TextSpan{
				{Text: "click here", URL: "https://evil.com", Tags: []SpanTag{SpanTagTextLink}},
			}},
			ectx: &EvalContext{AllowedDomains: []string{"example.com"}},
			want: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := classifyLink(tt.ev, tt.ectx); got != tt.want {
				t.Fatalf("classifyLink() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClassifyLinkIdempotent(t *testing.T) {
	t.Parallel()

	ev := urlEvent("https://evil.com")
	ectx := &EvalContext{AllowedDomains: []string{"example.com"}}

	first := classifyLink(ev, ectx)
	second := classifyLink(ev, ectx)
	if first != second {
		t.Fatalf("classification not idempotent: %v then %v", first, second)
	}
}

func TestClassifyInvite(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		url  string
		want bool
	}{
		{"joinchat path", "https://t.me/joinchat/AAAA", true},
		{"plus path", "https://t.me/+AbCdEf", true},
		{"telegram.me", "telegram.me/joinchat/XYZ", true},
		{"plain channel link", "https://t.me/somechannel", false},
		{"unrelated host", "https://example.com/+AbCdEf", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := classifyInvite(urlEvent(tt.url), nil); got != tt.want {
				t.Fatalf("classifyInvite(%q) = %v, want %v", tt.url, got, tt.want)
			}
		})
	}
}

func TestClassifyCommands(t *testing.T) {
	t.Parallel()

	commandEvent := func(cmd string) *ContentEvent {
		return &ContentEvent{ChatID: 1, TextSpans: []TextSpan{
			{Text: cmd, Tags: []SpanTag{SpanTagBotCommand}},
		}}
	}

	tests := []struct {
		name string
		ev   *ContentEvent
		ectx *EvalContext
		want bool
	}{
		{"no allowlist violates", commandEvent("/roll"), &EvalContext{}, true},
		{"allowed command passes", commandEvent("/roll"), &EvalContext{AllowedCommands: []string{"roll"}}, false},
		{"case insensitive", commandEvent("/Roll"), &EvalContext{AllowedCommands: []string{"roll"}}, false},
		{"bot suffix stripped", commandEvent("/roll@somebot"), &EvalContext{AllowedCommands: []string{"/roll"}}, false},
		{"other command violates", commandEvent("/start"), &EvalContext{AllowedCommands: []string{"roll"}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := classifyCommands(tt.ev, tt.ectx); got != tt.want {
				t.Fatalf("classifyCommands() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClassifyRTLChar(t *testing.T) {
	t.Parallel()

	if !classifyRTLChar(textEvent("שלום"), nil) {
		t.Fatal("hebrew text should match")
	}
	if !classifyRTLChar(textEvent("hi ‮ there"), nil) {
		t.Fatal("RTL override control should match")
	}
	if classifyRTLChar(textEvent("plain latin"), nil) {
		t.Fatal("latin text should not match")
	}
}

func TestClassifyAnonChannelAndComment(t *testing.T) {
	t.Parallel()

	if !classifyAnonChannel(&ContentEvent{SenderIsChannel: true}, nil) {
		t.Fatal("channel sender should match anonchannel")
	}
	if !classifyAnonChannel(&ContentEvent{IsFromLinkedChannel: true}, nil) {
		t.Fatal("linked channel forward should match anonchannel")
	}
	if classifyAnonChannel(&ContentEvent{UserID: 5}, nil) {
		t.Fatal("regular user should not match anonchannel")
	}
	if !classifyComment(&ContentEvent{ReplyToIsChannelPost: true}, nil) {
		t.Fatal("reply to channel post should match comment")
	}
}

func TestForwardClassifiers(t *testing.T) {
	t.Parallel()

	forward := func(kind ForwardSourceKind) *ContentEvent {
		return &ContentEvent{IsForwarded: true, ForwardSourceKind: kind}
	}

	registry := NewRegistry()
	check := func(category Category, ev *ContentEvent, want bool) {
		t.Helper()
		classifier, ok := registry.Get(category)
		if !ok {
			t.Fatalf("no classifier for %s", category)
		}
		if got := classifier(ev, nil); got != want {
			t.Fatalf("%s(%+v) = %v, want %v", category, ev, got, want)
		}
	}

	check(CategoryForward, forward(ForwardSourceUser), true)
	check(CategoryForward, &ContentEvent{}, false)
	check(CategoryForwardUser, forward(ForwardSourceUser), true)
	check(CategoryForwardUser, forward(ForwardSourceHidden), true)
	check(CategoryForwardUser, forward(ForwardSourceBot), false)
	check(CategoryForwardBot, forward(ForwardSourceBot), true)
	check(CategoryForwardChannel, forward(ForwardSourceChannel), true)
	check(CategoryForwardChannel, forward(ForwardSourceUser), false)
}

func TestRegistryCoversAllCategories(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()
	for _, category := range AllCategories() {
		if _, ok := registry.Get(category); !ok {
			t.Errorf("category %s has no classifier", category)
		}
	}
	if got, want := len(registry.Categories()), len(AllCategories()); got != want {
		t.Fatalf("registered %d categories, want %d", got, want)
	}
}

func TestRegistryIsolatesPanics(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()
	registry.Register(Category("custom"), func(*ContentEvent, *EvalContext) bool {
		panic("broken predicate")
	})

	if registry.classify(Category("custom"), textEvent("x"), nil) {
		t.Fatal("panicking classifier must be treated as non-match")
	}
}

func TestParseCategory(t *testing.T) {
	t.Parallel()

	if c, ok := ParseCategory("invite"); !ok || c != CategoryInvite {
		t.Fatalf("ParseCategory(invite) = %v, %v", c, ok)
	}
	if _, ok := ParseCategory("nonsense"); ok {
		t.Fatal("unknown category must not parse")
	}
}
