package memstore

import (
	"errors"
	"testing"
	"time"

	"github.com/memestream/memestream-service/internal/types"
)

func register(t *testing.T, s *Store, wallet string) types.User {
	t.Helper()
	user, created := s.RegisterUser(types.RegisterUserRequest{
		WalletAddress: wallet,
		OAuthProvider: "google",
		OAuthID:       "oauth-" + wallet,
	})
	if !created {
		t.Fatalf("Expected user %s to be created", wallet)
	}
	return user
}

func textContent(text string) types.MessageContent {
	return types.MessageContent{Type: types.MessageContentText, Text: &text}
}

func TestTrendingOrder(t *testing.T) {
	s := New()

	// Seeded: meme 1 has 12 likes + 3 comments (15), meme 2 has 8 + 1 (9).
	memes := s.TrendingMemes()
	if len(memes) != 2 {
		t.Fatalf("Expected 2 seeded memes, got %d", len(memes))
	}
	if memes[0].ID != 1 || memes[1].ID != 2 {
		t.Fatalf("Expected order [1 2], got [%d %d]", memes[0].ID, memes[1].ID)
	}

	// Push meme 2 past meme 1: 8 likes + 7 more + 1 comment = 16 > 15.
	for i := 0; i < 7; i++ {
		if _, err := s.LikeMeme(2); err != nil {
			t.Fatalf("Unexpected error liking meme: %v", err)
		}
	}

	memes = s.TrendingMemes()
	if memes[0].ID != 2 {
		t.Fatalf("Expected meme 2 on top after likes, got %d", memes[0].ID)
	}
}

func TestTrendingTieKeepsInsertionOrder(t *testing.T) {
	s := New()

	first := s.AddMeme("first", "", "http://example.com/a.jpg", nil, types.MediaTypeImage)
	second := s.AddMeme("second", "", "http://example.com/b.jpg", nil, types.MediaTypeImage)

	memes := s.TrendingMemes()
	// Both score zero and must follow the seeded memes in insertion order.
	if memes[2].ID != first.ID || memes[3].ID != second.ID {
		t.Fatalf("Expected tied memes in insertion order, got [%d %d]", memes[2].ID, memes[3].ID)
	}
}

func TestLikeMemeNotFound(t *testing.T) {
	s := New()

	if _, err := s.LikeMeme(999); !errors.Is(err, ErrMemeNotFound) {
		t.Fatalf("Expected ErrMemeNotFound, got %v", err)
	}
}

func TestFollowCountersRoundTrip(t *testing.T) {
	s := New()
	register(t, s, "0xaaa")
	register(t, s, "0xbbb")

	if err := s.Follow("0xaaa", "0xbbb"); err != nil {
		t.Fatalf("Unexpected error following: %v", err)
	}

	a, _ := s.UserByWallet("0xaaa")
	b, _ := s.UserByWallet("0xbbb")
	if a.FollowingCount != 1 || b.FollowersCount != 1 {
		t.Fatalf("Expected counters 1/1, got following=%d followers=%d", a.FollowingCount, b.FollowersCount)
	}

	if err := s.Follow("0xaaa", "0xbbb"); !errors.Is(err, ErrAlreadyFollowing) {
		t.Fatalf("Expected ErrAlreadyFollowing, got %v", err)
	}

	if err := s.Unfollow("0xaaa", "0xbbb"); err != nil {
		t.Fatalf("Unexpected error unfollowing: %v", err)
	}

	a, _ = s.UserByWallet("0xaaa")
	b, _ = s.UserByWallet("0xbbb")
	if a.FollowingCount != 0 || b.FollowersCount != 0 {
		t.Fatalf("Expected counters back to 0/0, got following=%d followers=%d", a.FollowingCount, b.FollowersCount)
	}

	if err := s.Unfollow("0xaaa", "0xbbb"); !errors.Is(err, ErrNotFollowing) {
		t.Fatalf("Expected ErrNotFollowing, got %v", err)
	}
}

func TestIsFollowing(t *testing.T) {
	s := New()
	register(t, s, "0xaaa")
	register(t, s, "0xbbb")

	if s.IsFollowing("0xaaa", "0xbbb") {
		t.Fatal("Expected no relationship before follow")
	}
	if err := s.Follow("0xaaa", "0xbbb"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !s.IsFollowing("0xaaa", "0xbbb") {
		t.Fatal("Expected relationship after follow")
	}
	if s.IsFollowing("0xbbb", "0xaaa") {
		t.Fatal("Follow must not be symmetric")
	}
}

func TestFollowingFeed(t *testing.T) {
	s := New()
	register(t, s, "0xfan")
	register(t, s, "0xcreator")

	creator := "0xcreator"
	posted := s.AddMeme("fresh", "new", "http://example.com/fresh.jpg", &creator, types.MediaTypeImage)

	feed := s.FollowingFeed("0xfan")
	if len(feed) != 0 {
		t.Fatalf("Expected empty feed before following, got %d posts", len(feed))
	}

	if err := s.Follow("0xfan", "0xcreator"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	feed = s.FollowingFeed("0xfan")
	if len(feed) != 1 || feed[0].ID != posted.ID {
		t.Fatalf("Expected feed to contain post %d, got %+v", posted.ID, feed)
	}

	if err := s.Unfollow("0xfan", "0xcreator"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if feed = s.FollowingFeed("0xfan"); len(feed) != 0 {
		t.Fatalf("Expected empty feed after unfollow, got %d posts", len(feed))
	}
}

func TestFollowingFeedNewestFirst(t *testing.T) {
	s := New()
	creator := "0xcreator"
	older := s.AddMeme("older", "", "http://example.com/1.jpg", &creator, types.MediaTypeImage)
	time.Sleep(time.Millisecond)
	newer := s.AddMeme("newer", "", "http://example.com/2.jpg", &creator, types.MediaTypeImage)

	if err := s.Follow("0xfan", "0xcreator"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	feed := s.FollowingFeed("0xfan")
	if len(feed) != 2 {
		t.Fatalf("Expected 2 posts, got %d", len(feed))
	}
	if feed[0].ID != newer.ID || feed[1].ID != older.ID {
		t.Fatalf("Expected newest first, got [%d %d]", feed[0].ID, feed[1].ID)
	}
}

func TestAddCommentBumpsCounter(t *testing.T) {
	s := New()
	register(t, s, "0xcommenter")

	before, err := s.LikeMeme(2)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	comment := s.AddComment(2, "0xcommenter", "nice one")
	if comment.PostID != 2 || comment.Text != "nice one" {
		t.Fatalf("Unexpected comment: %+v", comment)
	}

	after, err := s.LikeMeme(2)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if after.CommentCount != before.CommentCount+1 {
		t.Fatalf("Expected comment count %d, got %d", before.CommentCount+1, after.CommentCount)
	}

	comments := s.CommentsForPost(2)
	if len(comments) != 1 {
		t.Fatalf("Expected 1 comment, got %d", len(comments))
	}
	if comments[0].User == nil || comments[0].User.WalletAddress != "0xcommenter" {
		t.Fatalf("Expected author profile attached, got %+v", comments[0].User)
	}
}

func TestConversations(t *testing.T) {
	s := New()

	s.SendMessage("A", "B", textContent("hey"))
	time.Sleep(time.Millisecond)
	reply := s.SendMessage("B", "A", textContent("yo"))

	conversations := s.Conversations("A")
	if len(conversations) != 1 {
		t.Fatalf("Expected 1 conversation, got %d", len(conversations))
	}

	conv := conversations[0]
	if conv.OtherUserID != "B" {
		t.Fatalf("Expected conversation with B, got %s", conv.OtherUserID)
	}
	if conv.UnreadCount != 1 {
		t.Fatalf("Expected 1 unread message from B, got %d", conv.UnreadCount)
	}
	if conv.LastMessage == nil || conv.LastMessage.ID != reply.ID {
		t.Fatalf("Expected last message %d, got %+v", reply.ID, conv.LastMessage)
	}
}

func TestConversationsSortedByActivity(t *testing.T) {
	s := New()

	s.SendMessage("A", "B", textContent("first"))
	time.Sleep(time.Millisecond)
	s.SendMessage("A", "C", textContent("second"))

	conversations := s.Conversations("A")
	if len(conversations) != 2 {
		t.Fatalf("Expected 2 conversations, got %d", len(conversations))
	}
	if conversations[0].OtherUserID != "C" || conversations[1].OtherUserID != "B" {
		t.Fatalf("Expected most recent conversation first, got [%s %s]",
			conversations[0].OtherUserID, conversations[1].OtherUserID)
	}
}

func TestMarkMessagesRead(t *testing.T) {
	s := New()

	s.SendMessage("C", "D", textContent("one"))
	s.SendMessage("C", "D", textContent("two"))
	s.SendMessage("C", "D", textContent("three"))
	s.SendMessage("D", "C", textContent("back"))

	marked := s.MarkMessagesRead("D", "C")
	if marked != 3 {
		t.Fatalf("Expected 3 messages marked, got %d", marked)
	}

	for _, m := range s.MessagesBetween("C", "D") {
		switch {
		case m.SenderID == "C" && !m.IsRead:
			t.Fatalf("Expected message %d from C to be read", m.ID)
		case m.SenderID == "D" && m.IsRead:
			t.Fatalf("Message %d from D must stay unread", m.ID)
		}
	}

	if marked = s.MarkMessagesRead("D", "C"); marked != 0 {
		t.Fatalf("Expected second mark-read to flip nothing, got %d", marked)
	}
}

func TestRegisterUserIdempotent(t *testing.T) {
	s := New()
	first := register(t, s, "0xabc")

	again, created := s.RegisterUser(types.RegisterUserRequest{
		WalletAddress: "0xother",
		OAuthProvider: "google",
		OAuthID:       "oauth-0xabc",
	})
	if created {
		t.Fatal("Expected re-registration to return the existing user")
	}
	if again.WalletAddress != first.WalletAddress {
		t.Fatalf("Expected wallet %s, got %s", first.WalletAddress, again.WalletAddress)
	}
}

func TestSearchUsers(t *testing.T) {
	s := New()
	name := "Meme Lord"
	email := "lord@example.com"
	s.RegisterUser(types.RegisterUserRequest{
		WalletAddress: "0xlord",
		Name:          &name,
		Email:         &email,
		OAuthProvider: "google",
		OAuthID:       "oauth-lord",
	})
	register(t, s, "0xnobody")

	if results := s.SearchUsers("MEME"); len(results) != 1 || results[0].WalletAddress != "0xlord" {
		t.Fatalf("Expected name match for 0xlord, got %+v", results)
	}
	if results := s.SearchUsers("lord@"); len(results) != 1 {
		t.Fatalf("Expected email match, got %+v", results)
	}
	if results := s.SearchUsers("0xnobody"); len(results) != 1 {
		t.Fatalf("Expected wallet match, got %+v", results)
	}
	if results := s.SearchUsers("missing"); len(results) != 0 {
		t.Fatalf("Expected no matches, got %+v", results)
	}
}

func TestUpdateUserPartial(t *testing.T) {
	s := New()
	name := "Original"
	bio := "old bio"
	s.RegisterUser(types.RegisterUserRequest{
		WalletAddress: "0xabc",
		Name:          &name,
		Bio:           &bio,
		OAuthProvider: "google",
		OAuthID:       "oauth-abc",
	})

	newBio := "new bio"
	updated, err := s.UpdateUser("0xabc", types.UpdateUserRequest{Bio: &newBio})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if updated.Bio == nil || *updated.Bio != "new bio" {
		t.Fatalf("Expected bio updated, got %+v", updated.Bio)
	}
	if updated.Name == nil || *updated.Name != "Original" {
		t.Fatalf("Expected name untouched, got %+v", updated.Name)
	}

	if _, err := s.UpdateUser("0xmissing", types.UpdateUserRequest{}); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("Expected ErrUserNotFound, got %v", err)
	}
}
