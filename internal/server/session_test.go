package server

import "testing"

func TestNormalizeName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Ada", "Ada"},
		{"  Ada  ", "Ada"},
		{"", "Guest"},
		{"   ", "Guest"},
		{"AVeryLongPartyName", "AVeryLongPartyN"},
		{"日本語の名前が長すぎるテスト", "日本語の名前が長すぎるテスト"},
	}
	for _, tc := range cases {
		if got := normalizeName(tc.in, 15); got != tc.want {
			t.Errorf("normalizeName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestRejoinKeepsFlags(t *testing.T) {
	sess := sessionWithPlayers("a", "b")
	beginVoting(sess)
	castBallot(sess, "a", "b")

	joinParticipant(sess, "a", "Renamed")

	p := sess.Participants["a"]
	if p.Name != "Renamed" {
		t.Fatalf("expected name updated, got %q", p.Name)
	}
	if !p.Voted {
		t.Fatal("expected voted flag preserved across rejoin")
	}
	if len(sess.Participants) != 2 {
		t.Fatalf("expected no duplicate participant, got %d", len(sess.Participants))
	}
}

func TestRejoinUpdatesAuxName(t *testing.T) {
	sess := sessionWithPlayers("a", "b")
	sess.Phase = phasePlaying
	sess.Aux = &AuxRef{ID: "a", Name: "Player a"}

	joinParticipant(sess, "a", "DJ")
	if sess.Aux.Name != "DJ" {
		t.Fatalf("expected aux name refreshed, got %q", sess.Aux.Name)
	}
}

func TestResetSessionClearsEverything(t *testing.T) {
	sess := sessionWithPlayers("a", "b")
	beginVoting(sess)
	castBallot(sess, "a", "b")
	sess.Aux = &AuxRef{ID: "b", Name: "Player b"}

	resetSession(sess)

	if sess.Phase != phaseIdle {
		t.Fatalf("expected idle, got %s", sess.Phase)
	}
	if sess.Aux != nil {
		t.Fatal("expected aux cleared")
	}
	if len(sess.Ballots) != 0 {
		t.Fatal("expected ballots cleared")
	}
	for id, p := range sess.Participants {
		if p.Voted || p.Rated || p.Keep != nil {
			t.Fatalf("expected flags cleared for %s", id)
		}
	}
}

func TestBeginVotingClearsAux(t *testing.T) {
	sess := sessionWithPlayers("a")
	sess.Phase = phaseRating
	sess.Aux = &AuxRef{ID: "a", Name: "Player a"}

	epoch := sess.Epoch
	beginVoting(sess)

	if sess.Aux != nil {
		t.Fatal("expected aux cleared on fresh voting round")
	}
	if sess.Epoch != epoch+1 {
		t.Fatalf("expected epoch bump, got %d", sess.Epoch)
	}
}
