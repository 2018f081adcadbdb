package tui

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sadopc/tiempo/internal/auth"
	"github.com/sadopc/tiempo/internal/export"
	"github.com/sadopc/tiempo/internal/reminder"
	"github.com/sadopc/tiempo/internal/stopwatch"
	"github.com/sadopc/tiempo/internal/store"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

type fixture struct {
	store   *store.Store
	svc     *auth.Service
	clock   *fakeClock
	session auth.SessionFile
	dir     string
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.NewMemory()
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s := newTestStore(t)
	dir := t.TempDir()
	return &fixture{
		store:   s,
		svc:     auth.NewService(s, auth.Config{Secret: "test-secret", Issuer: "tiempo", TTL: time.Hour}, "Admin01"),
		clock:   &fakeClock{t: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)},
		session: auth.SessionFile{Path: filepath.Join(dir, "session")},
		dir:     dir,
	}
}

func (f *fixture) newApp(t *testing.T) App {
	t.Helper()
	a := NewApp(context.Background(), Options{
		Repo:             f.store,
		Auth:             f.svc,
		Session:          f.session,
		ReminderInterval: time.Minute,
		ExportDir:        f.dir,
		Now:              f.clock.now,
	})
	m, _ := a.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return m.(App)
}

func (f *fixture) register(t *testing.T, email, username string, admin bool) {
	t.Helper()
	_, err := f.svc.SignUp(context.Background(), auth.SignUpRequest{
		Email:           email,
		Password:        "secret1",
		ConfirmPassword: "secret1",
		Username:        username,
		Passphrase:      "Admin01",
		Admin:           admin,
	})
	if err != nil {
		t.Fatalf("sign up %s: %v", email, err)
	}
}

// signedIn returns an app past the auth gate for a fresh user.
func (f *fixture) signedIn(t *testing.T, admin bool) App {
	t.Helper()
	f.register(t, "ana@example.com", "ana", admin)
	a := f.newApp(t)
	return drain(t, a, a.signIn(signInMsg{email: "ana@example.com", password: "secret1"}))
}

// drain runs cmd and feeds the app's own messages back into Update until no
// more are produced. Messages from other sources (form cursors, ticks) are
// dropped, so never pass it a command that waits on a timer.
func drain(t *testing.T, a App, cmd tea.Cmd) App {
	t.Helper()
	if cmd == nil {
		return a
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		for _, c := range batch {
			a = drain(t, a, c)
		}
		return a
	}
	switch msg.(type) {
	case statusMsg, sessionResumedMsg, signedInMsg, signedUpMsg,
		entriesLoadedMsg, listsLoadedMsg, durationMsg,
		saveEntryMsg, entrySavedMsg, updateEntryMsg, entryUpdatedMsg,
		editListMsg, listEditedMsg, grantRoleMsg, roleGrantedMsg,
		exportMsg, exportDoneMsg:
	default:
		return a
	}
	m, next := a.Update(msg)
	return drain(t, m.(App), next)
}

func press(t *testing.T, a App, k string) (App, tea.Cmd) {
	t.Helper()
	var msg tea.KeyMsg
	switch k {
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		msg = tea.KeyMsg{Type: tea.KeyTab}
	case " ":
		msg = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
	m, cmd := a.Update(msg)
	return m.(App), cmd
}

func tick(t *testing.T, a App, c *fakeClock, n int) App {
	t.Helper()
	for i := 0; i < n; i++ {
		c.advance(time.Second)
		m, _ := a.Update(tickMsg(c.t))
		a = m.(App)
	}
	return a
}

func addLists(t *testing.T, f *fixture, a App) App {
	t.Helper()
	ctx := context.Background()
	for _, c := range []string{"Acme", "Globex"} {
		if err := f.store.AddClient(ctx, c); err != nil {
			t.Fatal(err)
		}
	}
	if err := f.store.AddTask(ctx, "Design"); err != nil {
		t.Fatal(err)
	}
	return drain(t, a, a.loadLists())
}

// ============================================================
// Session gate
// ============================================================

func TestNewAppLoading(t *testing.T) {
	f := newFixture(t)
	a := NewApp(context.Background(), Options{Repo: f.store, Auth: f.svc})

	if a.phase != phaseLoading {
		t.Fatal("app should start in the loading phase")
	}
	if a.activeView != viewTimer {
		t.Fatal("default view should be timer")
	}
	if out := a.View(); out != "Loading..." {
		t.Fatalf("expected 'Loading...', got %q", out)
	}
}

func TestResumeWithoutSession(t *testing.T) {
	f := newFixture(t)
	a := f.newApp(t)

	msg := a.resume()()
	resumed, ok := msg.(sessionResumedMsg)
	if !ok || resumed.session != nil || resumed.err != nil {
		t.Fatalf("resume = %#v, want empty session", msg)
	}

	m, _ := a.Update(msg)
	a = m.(App)
	if a.phase != phaseAuth {
		t.Fatalf("phase = %v, want auth", a.phase)
	}
	if a.signin.form == nil {
		t.Fatal("sign-in form should be open")
	}
	if !strings.Contains(a.View(), "Sign in") {
		t.Fatal("auth view should be rendered")
	}
}

func TestSignIn(t *testing.T) {
	f := newFixture(t)
	a := f.signedIn(t, false)

	if a.phase != phaseReady {
		t.Fatalf("phase = %v, want ready", a.phase)
	}
	if a.state.profile == nil || a.state.profile.Username != "ana" {
		t.Fatalf("profile = %+v", a.state.profile)
	}
	token, err := f.session.Load()
	if err != nil || token == "" {
		t.Fatalf("session token should be saved, got %q, %v", token, err)
	}
	if !strings.Contains(a.status.text, "ana") {
		t.Fatalf("status = %q", a.status.text)
	}
}

func TestSignInFailure(t *testing.T) {
	f := newFixture(t)
	f.register(t, "ana@example.com", "ana", false)
	a := f.newApp(t)

	m, _ := a.Update(a.signIn(signInMsg{email: "ana@example.com", password: "wrong!!"})())
	a = m.(App)

	if a.phase == phaseReady {
		t.Fatal("wrong password must not open a session")
	}
	if a.signin.errText != "Invalid email or password" {
		t.Fatalf("errText = %q", a.signin.errText)
	}
	if *a.signin.password != "" {
		t.Fatal("password field should be cleared after a failure")
	}
}

func TestSignUpSwitchesToSignIn(t *testing.T) {
	f := newFixture(t)
	a := f.newApp(t)

	m, _ := a.Update(a.signUp(auth.SignUpRequest{
		Email:           "bob@example.com",
		Password:        "secret1",
		ConfirmPassword: "secret1",
		Username:        "bob",
		Passphrase:      "Admin01",
	})())
	a = m.(App)

	if a.phase == phaseReady {
		t.Fatal("registration must not sign the user in")
	}
	if a.signin.mode != signInMode || a.signin.notice == "" {
		t.Fatalf("mode = %v notice = %q", a.signin.mode, a.signin.notice)
	}
}

func TestSignUpBadPassphrase(t *testing.T) {
	f := newFixture(t)
	a := f.newApp(t)
	a.signin.mode = signUpMode

	m, _ := a.Update(a.signUp(auth.SignUpRequest{
		Email:           "bob@example.com",
		Password:        "secret1",
		ConfirmPassword: "secret1",
		Username:        "bob",
		Passphrase:      "nope",
	})())
	a = m.(App)

	if a.signin.errText != "Incorrect administrator passphrase" {
		t.Fatalf("errText = %q", a.signin.errText)
	}
	if a.signin.mode != signUpMode {
		t.Fatal("failed registration should stay on the registration form")
	}
}

func TestResumeSavedSession(t *testing.T) {
	f := newFixture(t)
	f.register(t, "ana@example.com", "ana", false)
	sess, err := f.svc.SignIn(context.Background(), "ana@example.com", "secret1")
	if err != nil {
		t.Fatal(err)
	}
	if err := f.session.Save(sess.Token); err != nil {
		t.Fatal(err)
	}

	a := f.newApp(t)
	a = drain(t, a, a.resume())
	if a.phase != phaseReady {
		t.Fatalf("phase = %v, want ready", a.phase)
	}
}

func TestResumeInvalidTokenClearsSession(t *testing.T) {
	f := newFixture(t)
	if err := f.session.Save("not-a-token"); err != nil {
		t.Fatal(err)
	}

	a := f.newApp(t)
	m, _ := a.Update(a.resume()())
	a = m.(App)

	if a.phase != phaseAuth {
		t.Fatalf("phase = %v, want auth", a.phase)
	}
	if token, _ := f.session.Load(); token != "" {
		t.Fatalf("invalid token should be removed, still have %q", token)
	}
}

func TestSignOut(t *testing.T) {
	f := newFixture(t)
	a := f.signedIn(t, false)
	a = addLists(t, f, a)
	a, _ = press(t, a, "s")
	a = tick(t, a, f.clock, 5)

	a, _ = press(t, a, "o")
	if a.phase != phaseAuth {
		t.Fatalf("phase = %v, want auth", a.phase)
	}
	if a.state.profile != nil || a.state.clients != nil || a.state.entries != nil {
		t.Fatal("per-user state should be cleared")
	}
	if a.state.watch.State() != stopwatch.Idle {
		t.Fatal("stopwatch should be reset on sign-out")
	}
	if token, _ := f.session.Load(); token != "" {
		t.Fatal("session file should be removed")
	}
}

// ============================================================
// Timer
// ============================================================

func TestTimerStartPauseResume(t *testing.T) {
	f := newFixture(t)
	a := f.signedIn(t, false)

	a, _ = press(t, a, "s")
	if !a.state.watch.Running() {
		t.Fatal("s should start the stopwatch")
	}
	a = tick(t, a, f.clock, 3)

	a, _ = press(t, a, " ")
	if a.state.watch.State() != stopwatch.Paused {
		t.Fatalf("state = %v, want paused", a.state.watch.State())
	}
	a = tick(t, a, f.clock, 3)
	if a.state.watch.Elapsed() != 3 {
		t.Fatalf("elapsed = %d, want 3", a.state.watch.Elapsed())
	}

	a, _ = press(t, a, " ")
	if !a.state.watch.Running() {
		t.Fatal("space should resume a paused stopwatch")
	}
}

func TestTimerFinalizeSetsDraft(t *testing.T) {
	f := newFixture(t)
	a := f.signedIn(t, false)

	a, _ = press(t, a, "s")
	anchor, _ := a.state.watch.Anchor()
	a = tick(t, a, f.clock, 90)

	a, cmd := press(t, a, "f")
	a = drain(t, a, cmd)

	if a.state.draftDuration != 90 {
		t.Fatalf("draft duration = %d, want 90", a.state.draftDuration)
	}
	if a.state.draftStart == nil || !a.state.draftStart.Equal(anchor) {
		t.Fatalf("draft start = %v, want %v", a.state.draftStart, anchor)
	}
	if a.state.watch.State() != stopwatch.Idle {
		t.Fatal("finalize should reset the stopwatch")
	}
}

func TestTimerStopOpensEntryForm(t *testing.T) {
	f := newFixture(t)
	a := f.signedIn(t, false)

	a, _ = press(t, a, "s")
	a = tick(t, a, f.clock, 30)
	a, _ = press(t, a, "x")

	if !a.timer.formActive || a.timer.formType != "entry" {
		t.Fatal("x should open the entry form")
	}
	if a.state.watch.State() != stopwatch.Idle {
		t.Fatal("x should stop and reset the stopwatch")
	}
	if !a.isFormActive() {
		t.Fatal("shell should route keys to the open form")
	}
}

func TestDurationMsgAutosaveStatus(t *testing.T) {
	f := newFixture(t)
	a := f.signedIn(t, false)
	start := f.clock.t.Add(-time.Hour)

	m, _ := a.Update(durationMsg{seconds: 3600, start: start, autosaved: true})
	a = m.(App)
	if a.status.text != "Time recorded, complete the form to save" {
		t.Fatalf("status = %q", a.status.text)
	}
	if a.state.draftDuration != 3600 || !a.state.draftStart.Equal(start) {
		t.Fatal("draft not set")
	}
}

func TestTimerReset(t *testing.T) {
	f := newFixture(t)
	a := f.signedIn(t, false)

	a, _ = press(t, a, "s")
	a = tick(t, a, f.clock, 10)
	a, _ = press(t, a, "r")
	if a.state.watch.Elapsed() != 0 || a.state.watch.Running() {
		t.Fatal("r should reset the stopwatch")
	}
}

func TestManualTime(t *testing.T) {
	f := newFixture(t)
	a := f.signedIn(t, false)

	*a.timer.hours, *a.timer.minutes, *a.timer.seconds = "1", "", "30"
	msg := a.timer.addManual()()
	if st, ok := msg.(statusMsg); !ok || st.text != "Time added" {
		t.Fatalf("addManual = %#v", msg)
	}
	if a.state.watch.Elapsed() != 3630 {
		t.Fatalf("elapsed = %d, want 3630", a.state.watch.Elapsed())
	}
	if *a.timer.hours != "" || *a.timer.seconds != "" {
		t.Fatal("fields should be cleared after adding time")
	}

	*a.timer.hours = "0"
	if st := a.timer.addManual()().(statusMsg); st.text != "No time added" {
		t.Fatalf("status = %q", st.text)
	}
}

func TestParseCount(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"", 0, false},
		{" 7 ", 7, false},
		{"-2", -2, false},
		{"1.5", 0, true},
		{"abc", 0, true},
	}
	for _, tt := range tests {
		got, err := parseCount(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("parseCount(%q) = %d, %v", tt.in, got, err)
		}
	}
}

// ============================================================
// Entries
// ============================================================

func saveEntry(t *testing.T, f *fixture, a App, client string, secs int64) App {
	t.Helper()
	m, _ := a.Update(durationMsg{seconds: secs, start: f.clock.t.Add(-time.Duration(secs) * time.Second)})
	a = m.(App)
	*a.timer.client, *a.timer.task, *a.timer.description = client, "Design", " notes "
	return drain(t, a, a.timer.submitEntry())
}

func TestSaveEntry(t *testing.T) {
	f := newFixture(t)
	a := f.signedIn(t, false)
	a = addLists(t, f, a)

	a = saveEntry(t, f, a, "Acme", 1800)

	if len(a.state.entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(a.state.entries))
	}
	e := a.state.entries[0]
	if e.Client != "Acme" || e.Duration != 1800 || e.Description != "notes" || e.Username != "ana" {
		t.Fatalf("entry = %+v", e)
	}
	if a.state.draftDuration != 0 || a.state.draftStart != nil {
		t.Fatal("draft should be cleared after saving")
	}
	if *a.timer.client != "" {
		t.Fatal("entry form should be cleared after submit")
	}
	if a.status.text != "Entry saved" {
		t.Fatalf("status = %q", a.status.text)
	}

	stored, err := f.store.ListEntries(context.Background(), a.state.profile.ID)
	if err != nil || len(stored) != 1 {
		t.Fatalf("stored entries = %d, %v", len(stored), err)
	}
}

func TestSaveEntryNewestFirst(t *testing.T) {
	f := newFixture(t)
	a := f.signedIn(t, false)
	a = addLists(t, f, a)

	a = saveEntry(t, f, a, "Acme", 60)
	a = saveEntry(t, f, a, "Globex", 120)

	if a.state.entries[0].Client != "Globex" || a.state.entries[1].Client != "Acme" {
		t.Fatalf("entries not newest first: %s, %s", a.state.entries[0].Client, a.state.entries[1].Client)
	}
}

func TestSubmitEntryValidation(t *testing.T) {
	f := newFixture(t)
	a := f.signedIn(t, false)
	a = addLists(t, f, a)

	msg := a.timer.submitEntry()()
	st, ok := msg.(statusMsg)
	if !ok || !st.isError || st.text != "Please select client and task" {
		t.Fatalf("submit with empty form = %#v", msg)
	}

	*a.timer.client, *a.timer.task = "Initech", "Design"
	st = a.timer.submitEntry()().(statusMsg)
	if !st.isError {
		t.Fatal("unknown client should be rejected")
	}
	if *a.timer.client != "Initech" {
		t.Fatal("failed submit should keep the form fields")
	}
}

func TestEditEntry(t *testing.T) {
	f := newFixture(t)
	a := f.signedIn(t, false)
	a = addLists(t, f, a)
	a = saveEntry(t, f, a, "Acme", 1800)

	h, _ := a.history.showEditForm(a.state.entries[0])
	*h.client = "Globex"
	*h.hours = "1.50"

	msg := h.saveEdit()()
	upd, ok := msg.(updateEntryMsg)
	if !ok {
		t.Fatalf("saveEdit = %#v", msg)
	}
	if upd.entry.Client != "Globex" || upd.entry.Duration != 5400 {
		t.Fatalf("edited entry = %+v", upd.entry)
	}

	a = drain(t, a, func() tea.Msg { return msg })
	if a.state.entries[0].Client != "Globex" || a.state.entries[0].Username != "ana" {
		t.Fatalf("entry not replaced in place: %+v", a.state.entries[0])
	}
	if a.status.text != "Entry updated" {
		t.Fatalf("status = %q", a.status.text)
	}

	stored, _ := f.store.GetEntry(context.Background(), upd.entry.ID)
	if stored.Client != "Globex" || stored.Duration != 5400 {
		t.Fatalf("stored entry = %+v", stored)
	}
}

func TestEditKeepsUntouchedFields(t *testing.T) {
	for _, secs := range []int64{59, 1234, 3661} {
		f := newFixture(t)
		a := f.signedIn(t, false)
		a = addLists(t, f, a)
		a = saveEntry(t, f, a, "Acme", secs)
		orig := a.state.entries[0]

		h, _ := a.history.showEditForm(orig)
		*h.description = "only the description changed"

		upd, ok := h.saveEdit()().(updateEntryMsg)
		if !ok {
			t.Fatalf("%ds: saveEdit did not produce an update", secs)
		}
		if upd.entry.Duration != secs {
			t.Fatalf("%ds: duration rewritten to %d", secs, upd.entry.Duration)
		}
		if !upd.entry.StartTime.Equal(orig.StartTime) || !upd.entry.EndTime.Equal(orig.EndTime) {
			t.Fatalf("%ds: times rewritten: %v-%v, want %v-%v",
				secs, upd.entry.StartTime, upd.entry.EndTime, orig.StartTime, orig.EndTime)
		}

		drain(t, a, func() tea.Msg { return upd })
		stored, err := f.store.GetEntry(context.Background(), orig.ID)
		if err != nil {
			t.Fatal(err)
		}
		if stored.Duration != secs || stored.Description != "only the description changed" {
			t.Fatalf("%ds: stored entry = %+v", secs, stored)
		}
	}
}

func TestEditEntryRequiresSelection(t *testing.T) {
	f := newFixture(t)
	a := f.signedIn(t, false)
	a = addLists(t, f, a)
	a = saveEntry(t, f, a, "Acme", 60)

	h, _ := a.history.showEditForm(a.state.entries[0])
	*h.task = ""
	st, ok := h.saveEdit()().(statusMsg)
	if !ok || st.text != "Please select client and task" {
		t.Fatalf("saveEdit = %#v", st)
	}
}

func TestEditFormPrefill(t *testing.T) {
	f := newFixture(t)
	a := f.signedIn(t, false)
	a = addLists(t, f, a)
	a = saveEntry(t, f, a, "Acme", 2700)

	h, _ := a.history.showEditForm(a.state.entries[0])
	if *h.hours != "0.75" {
		t.Fatalf("hours = %q, want 0.75", *h.hours)
	}
	if *h.client != "Acme" || *h.task != "Design" {
		t.Fatalf("client/task = %q/%q", *h.client, *h.task)
	}
}

// ============================================================
// Export
// ============================================================

func TestExportFromHistory(t *testing.T) {
	f := newFixture(t)
	a := f.signedIn(t, false)
	a = addLists(t, f, a)
	a = saveEntry(t, f, a, "Acme", 3600)

	a, _ = press(t, a, "2")
	if a.activeView != viewHistory {
		t.Fatal("2 should open the history tab")
	}
	a, _ = press(t, a, "e")
	if !a.history.picking {
		t.Fatal("e should open the export picker")
	}
	a, _ = press(t, a, "j")
	a, cmd := press(t, a, "enter")
	a = drain(t, a, cmd)

	path := filepath.Join(f.dir, export.FileName(export.FormatCSV, f.clock.t))
	if a.status.text != "Exported to "+path {
		t.Fatalf("status = %q", a.status.text)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("export file missing: %v", err)
	}
}

func TestExportEmpty(t *testing.T) {
	f := newFixture(t)
	a := f.signedIn(t, false)

	a = drain(t, a, a.export(export.FormatXLSX))
	if a.status.text != "No entries to export" {
		t.Fatalf("status = %q", a.status.text)
	}
}

// ============================================================
// Admin
// ============================================================

func TestAdminTabHiddenForUsers(t *testing.T) {
	f := newFixture(t)
	a := f.signedIn(t, false)

	a, _ = press(t, a, "3")
	if a.activeView == viewAdmin {
		t.Fatal("non-admins must not reach the admin tab")
	}
	if strings.Contains(a.renderHeader(), "Admin") {
		t.Fatal("admin tab should be hidden")
	}
	a, _ = press(t, a, "tab")
	a, _ = press(t, a, "tab")
	if a.activeView != viewTimer {
		t.Fatalf("tab should cycle timer and history only, got %v", a.activeView)
	}
}

func TestAdminAddAndRemove(t *testing.T) {
	f := newFixture(t)
	a := f.signedIn(t, true)

	a, cmd := press(t, a, "3")
	a = drain(t, a, cmd)
	if a.activeView != viewAdmin {
		t.Fatal("admins should reach the admin tab")
	}

	a = drain(t, a, func() tea.Msg { return editListMsg{kind: clientList, name: "Acme"} })
	a = drain(t, a, func() tea.Msg { return editListMsg{kind: clientList, name: "Globex"} })
	a = drain(t, a, func() tea.Msg { return editListMsg{kind: taskList, name: "Review"} })
	if len(a.state.clients) != 2 || len(a.state.tasks) != 1 {
		t.Fatalf("clients = %v tasks = %v", a.state.clients, a.state.tasks)
	}
	if a.status.text != "Task added" {
		t.Fatalf("status = %q", a.status.text)
	}

	a = drain(t, a, func() tea.Msg { return editListMsg{kind: clientList, name: "Acme"} })
	if !a.status.isError || a.status.text != "Could not add client" {
		t.Fatalf("duplicate add status = %+v", a.status)
	}

	// d removes the selected client.
	a, cmd = press(t, a, "d")
	a = drain(t, a, cmd)
	if len(a.state.clients) != 1 || a.state.clients[0] != "Globex" {
		t.Fatalf("clients after remove = %v", a.state.clients)
	}
	if a.status.text != "Client removed" {
		t.Fatalf("status = %q", a.status.text)
	}
}

func TestGrantRole(t *testing.T) {
	f := newFixture(t)
	a := f.signedIn(t, true)
	f.register(t, "bob@example.com", "bob", false)

	a = drain(t, a, func() tea.Msg { return grantRoleMsg{email: "bob@example.com", role: store.RoleAdmin} })
	if a.status.text != "bob@example.com is now admin" {
		t.Fatalf("status = %q", a.status.text)
	}

	a = drain(t, a, func() tea.Msg { return grantRoleMsg{email: "nobody@example.com", role: store.RoleAdmin} })
	if a.status.text != "No user registered with that email" {
		t.Fatalf("status = %q", a.status.text)
	}
}

func TestSelfDemotionLeavesAdminTab(t *testing.T) {
	f := newFixture(t)
	a := f.signedIn(t, true)
	a, cmd := press(t, a, "3")
	a = drain(t, a, cmd)

	a = drain(t, a, func() tea.Msg { return grantRoleMsg{email: "ana@example.com", role: store.RoleUser} })
	if a.state.isAdmin() {
		t.Fatal("profile should reflect the new role")
	}
	if a.activeView != viewTimer {
		t.Fatal("demoted user should leave the admin tab")
	}
}

// ============================================================
// Reminder
// ============================================================

func TestReminderBanner(t *testing.T) {
	f := newFixture(t)
	a := f.signedIn(t, false)

	a = tick(t, a, f.clock, 61)
	if !a.state.remind.Visible() {
		t.Fatal("reminder should fire after the interval while idle")
	}
	if !strings.Contains(a.View(), reminder.Message) {
		t.Fatal("banner should be rendered")
	}

	a, _ = press(t, a, "b")
	if a.state.remind.Visible() {
		t.Fatal("b should dismiss the banner")
	}

	a = tick(t, a, f.clock, 61)
	if !a.state.remind.Visible() {
		t.Fatal("reminder should fire again")
	}
	a, _ = press(t, a, "s")
	if a.state.remind.Visible() {
		t.Fatal("starting the stopwatch should hide the banner")
	}

	a = tick(t, a, f.clock, 120)
	if a.state.remind.Visible() {
		t.Fatal("reminder must not fire while the stopwatch runs")
	}
}

// ============================================================
// Rendering
// ============================================================

func TestAppViewStates(t *testing.T) {
	f := newFixture(t)
	a := f.signedIn(t, true)
	a = addLists(t, f, a)
	a = saveEntry(t, f, a, "Acme", 5400)

	for _, v := range []viewState{viewTimer, viewHistory, viewAdmin} {
		a.activeView = v
		if out := a.View(); out == "" {
			t.Fatalf("view %d rendered empty", v)
		}
	}
}

func TestAppRenderHeader(t *testing.T) {
	f := newFixture(t)
	a := f.signedIn(t, true)

	header := a.renderHeader()
	for _, name := range viewNames {
		if !strings.Contains(header, name) {
			t.Fatalf("header missing tab %q", name)
		}
	}
	if !strings.Contains(header, "ana") {
		t.Fatal("header should show the display name")
	}
}

func TestAppStatusMessage(t *testing.T) {
	f := newFixture(t)
	a := f.signedIn(t, false)

	m, _ := a.Update(statusMsg{text: "test status"})
	a = m.(App)
	if !strings.Contains(a.renderFooter(), "test status") {
		t.Fatal("footer should contain status message")
	}
}

func TestAuthErrorText(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&auth.ValidationError{Msg: "Passwords do not match"}, "Passwords do not match"},
		{auth.ErrInvalidCredentials, "Invalid email or password"},
		{auth.ErrAlreadyRegistered, "This email is already registered"},
		{auth.ErrBadPassphrase, "Incorrect administrator passphrase"},
		{os.ErrDeadlineExceeded, "fallback"},
	}
	for _, tt := range tests {
		if got := authErrorText(tt.err, "fallback"); got != tt.want {
			t.Errorf("authErrorText(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Fatalf("truncate = %q", got)
	}
	if got := truncate("Descripción larga", 6); got != "Descr…" {
		t.Fatalf("truncate = %q", got)
	}
}

// ============================================================
// Key bindings
// ============================================================

func TestKeyMapShortHelp(t *testing.T) {
	if len(keys.ShortHelp()) == 0 {
		t.Fatal("short help should have bindings")
	}
}

func TestKeyMapFullHelp(t *testing.T) {
	groups := keys.FullHelp()
	if len(groups) == 0 {
		t.Fatal("full help should have groups")
	}
	for i, g := range groups {
		if len(g) == 0 {
			t.Fatalf("full help group %d is empty", i)
		}
	}
}
