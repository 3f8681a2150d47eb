// Package memstore owns the wallet-keyed demo collections: users, memes,
// comments, follows and messages live in process memory and are lost on
// restart. Each collection sits behind its own mutex; operations that touch
// two collections (follow, add-comment) lock them one after the other, so a
// concurrent reader can briefly observe one side of the update without the
// other. That weak cross-collection consistency is intentional.
package memstore

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/memestream/memestream-service/internal/types"
)

var (
	ErrMemeNotFound     = errors.New("meme not found")
	ErrUserNotFound     = errors.New("user not found")
	ErrAlreadyFollowing = errors.New("already following")
	ErrNotFollowing     = errors.New("not following")
)

// seq is a mutex-guarded id counter, one per collection that needs ids.
type seq struct {
	mu sync.Mutex
	n  int
}

func newSeq(start int) *seq { return &seq{n: start} }

func (s *seq) next() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.n
	s.n++
	return id
}

type Store struct {
	memesMu sync.Mutex
	memes   []types.Meme

	usersMu sync.Mutex
	users   []types.User

	commentsMu sync.Mutex
	comments   []types.Comment

	followsMu sync.Mutex
	follows   []types.Follow

	messagesMu sync.Mutex
	messages   []types.Message

	memeIDs    *seq
	commentIDs *seq
	messageIDs *seq
}

// timeLayout is RFC3339 with fixed-width fractional seconds, so the
// lexicographic ordering the feed and conversation sorts rely on matches
// time ordering even within the same second.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// New returns a store seeded with the two classic demo memes.
func New() *Store {
	now := nowRFC3339()
	doge := "0x39D0F19273036293764262aCb5115F223aEF8f79"
	pepe := "0x2555ea784eBDb81C1704f8b749Dbbc68aDaCB723"

	return &Store{
		memes: []types.Meme{
			{
				ID:           1,
				Caption:      "Doge",
				Tags:         "classic, crypto",
				Image:        "https://i.kym-cdn.com/entries/icons/original/000/013/564/doge.jpg",
				MediaType:    types.MediaTypeImage,
				EVMAddress:   &doge,
				Likes:        12,
				CommentCount: 3,
				CreatedAt:    now,
			},
			{
				ID:           2,
				Caption:      "Pepe the Frog",
				Tags:         "classic, rare",
				Image:        "https://i.kym-cdn.com/entries/icons/original/000/017/618/pepefroggie.jpg",
				MediaType:    types.MediaTypeImage,
				EVMAddress:   &pepe,
				Likes:        8,
				CommentCount: 1,
				CreatedAt:    now,
			},
		},
		memeIDs:    newSeq(3),
		commentIDs: newSeq(1),
		messageIDs: newSeq(1),
	}
}

func nowRFC3339() string {
	return time.Now().UTC().Format(timeLayout)
}

// TrendingMemes returns every meme sorted by likes + comment count,
// descending. Equal scores keep insertion order.
func (s *Store) TrendingMemes() []types.Meme {
	s.memesMu.Lock()
	sorted := make([]types.Meme, len(s.memes))
	copy(sorted, s.memes)
	s.memesMu.Unlock()

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Likes+sorted[i].CommentCount > sorted[j].Likes+sorted[j].CommentCount
	})

	return sorted
}

func (s *Store) LikeMeme(memeID int) (types.Meme, error) {
	s.memesMu.Lock()
	defer s.memesMu.Unlock()

	for i := range s.memes {
		if s.memes[i].ID == memeID {
			s.memes[i].Likes++
			return s.memes[i], nil
		}
	}

	return types.Meme{}, ErrMemeNotFound
}

// AddMeme appends a new post. imageURL has already been resolved by the
// upload layer when the request carried a binary part.
func (s *Store) AddMeme(caption, tags, imageURL string, evmAddress *string, mediaType types.MediaType) types.Meme {
	meme := types.Meme{
		ID:         s.memeIDs.next(),
		Caption:    caption,
		Tags:       tags,
		Image:      imageURL,
		MediaType:  mediaType,
		EVMAddress: evmAddress,
		CreatedAt:  nowRFC3339(),
	}

	s.memesMu.Lock()
	s.memes = append(s.memes, meme)
	s.memesMu.Unlock()

	return meme
}

// RegisterUser creates a demo user, or returns the existing one when the
// (oauth_provider, oauth_id) pair is already registered. The second return
// reports whether a new user was created.
func (s *Store) RegisterUser(req types.RegisterUserRequest) (types.User, bool) {
	s.usersMu.Lock()
	defer s.usersMu.Unlock()

	for i := range s.users {
		if s.users[i].OAuthID == req.OAuthID && s.users[i].OAuthProvider == req.OAuthProvider {
			return s.users[i], false
		}
	}

	user := types.User{
		WalletAddress:  req.WalletAddress,
		Email:          req.Email,
		Name:           req.Name,
		ProfilePicture: req.ProfilePicture,
		Bio:            req.Bio,
		OAuthProvider:  req.OAuthProvider,
		OAuthID:        req.OAuthID,
		CreatedAt:      nowRFC3339(),
	}
	s.users = append(s.users, user)

	return user, true
}

// SearchUsers matches query case-insensitively against email, name and
// wallet address.
func (s *Store) SearchUsers(query string) []types.User {
	q := strings.ToLower(query)

	s.usersMu.Lock()
	defer s.usersMu.Unlock()

	results := []types.User{}
	for _, u := range s.users {
		if u.Email != nil && strings.Contains(strings.ToLower(*u.Email), q) {
			results = append(results, u)
			continue
		}
		if u.Name != nil && strings.Contains(strings.ToLower(*u.Name), q) {
			results = append(results, u)
			continue
		}
		if strings.Contains(strings.ToLower(u.WalletAddress), q) {
			results = append(results, u)
		}
	}

	return results
}

func (s *Store) Users() []types.User {
	s.usersMu.Lock()
	defer s.usersMu.Unlock()

	users := make([]types.User, len(s.users))
	copy(users, s.users)
	return users
}

func (s *Store) UserByWallet(wallet string) (types.User, error) {
	s.usersMu.Lock()
	defer s.usersMu.Unlock()

	for _, u := range s.users {
		if u.WalletAddress == wallet {
			return u, nil
		}
	}

	return types.User{}, ErrUserNotFound
}

// UpdateUser overwrites only the non-nil fields of the request.
func (s *Store) UpdateUser(wallet string, req types.UpdateUserRequest) (types.User, error) {
	s.usersMu.Lock()
	defer s.usersMu.Unlock()

	for i := range s.users {
		if s.users[i].WalletAddress != wallet {
			continue
		}
		if req.Name != nil {
			s.users[i].Name = req.Name
		}
		if req.Bio != nil {
			s.users[i].Bio = req.Bio
		}
		if req.ProfilePicture != nil {
			s.users[i].ProfilePicture = req.ProfilePicture
		}
		return s.users[i], nil
	}

	return types.User{}, ErrUserNotFound
}

// Follow records the relationship and bumps both parties' counters. The
// follows and users collections are locked in turn, not together.
func (s *Store) Follow(followerID, followingID string) error {
	s.followsMu.Lock()
	for _, f := range s.follows {
		if f.FollowerID == followerID && f.FollowingID == followingID {
			s.followsMu.Unlock()
			return ErrAlreadyFollowing
		}
	}
	s.follows = append(s.follows, types.Follow{
		FollowerID:  followerID,
		FollowingID: followingID,
		CreatedAt:   nowRFC3339(),
	})
	s.followsMu.Unlock()

	s.usersMu.Lock()
	defer s.usersMu.Unlock()
	for i := range s.users {
		if s.users[i].WalletAddress == followerID {
			s.users[i].FollowingCount++
		}
		if s.users[i].WalletAddress == followingID {
			s.users[i].FollowersCount++
		}
	}

	return nil
}

// Unfollow removes the relationship and decrements both counters, saturating
// at zero.
func (s *Store) Unfollow(followerID, followingID string) error {
	s.followsMu.Lock()
	kept := s.follows[:0]
	removed := false
	for _, f := range s.follows {
		if f.FollowerID == followerID && f.FollowingID == followingID {
			removed = true
			continue
		}
		kept = append(kept, f)
	}
	s.follows = kept
	s.followsMu.Unlock()

	if !removed {
		return ErrNotFollowing
	}

	s.usersMu.Lock()
	defer s.usersMu.Unlock()
	for i := range s.users {
		if s.users[i].WalletAddress == followerID && s.users[i].FollowingCount > 0 {
			s.users[i].FollowingCount--
		}
		if s.users[i].WalletAddress == followingID && s.users[i].FollowersCount > 0 {
			s.users[i].FollowersCount--
		}
	}

	return nil
}

func (s *Store) IsFollowing(followerID, followingID string) bool {
	s.followsMu.Lock()
	defer s.followsMu.Unlock()

	for _, f := range s.follows {
		if f.FollowerID == followerID && f.FollowingID == followingID {
			return true
		}
	}
	return false
}

func (s *Store) Followers(wallet string) []types.User {
	followerIDs := map[string]bool{}

	s.followsMu.Lock()
	for _, f := range s.follows {
		if f.FollowingID == wallet {
			followerIDs[f.FollowerID] = true
		}
	}
	s.followsMu.Unlock()

	return s.usersByWallet(followerIDs)
}

func (s *Store) Following(wallet string) []types.User {
	followingIDs := map[string]bool{}

	s.followsMu.Lock()
	for _, f := range s.follows {
		if f.FollowerID == wallet {
			followingIDs[f.FollowingID] = true
		}
	}
	s.followsMu.Unlock()

	return s.usersByWallet(followingIDs)
}

func (s *Store) usersByWallet(wallets map[string]bool) []types.User {
	s.usersMu.Lock()
	defer s.usersMu.Unlock()

	users := []types.User{}
	for _, u := range s.users {
		if wallets[u.WalletAddress] {
			users = append(users, u)
		}
	}
	return users
}

func (s *Store) PostsByUser(wallet string) []types.Meme {
	s.memesMu.Lock()
	defer s.memesMu.Unlock()

	posts := []types.Meme{}
	for _, m := range s.memes {
		if m.EVMAddress != nil && *m.EVMAddress == wallet {
			posts = append(posts, m)
		}
	}
	return posts
}

// FollowingFeed returns posts from wallets the user follows, newest first.
// CreatedAt is a consistently formatted RFC3339 string, so lexicographic
// comparison orders it correctly.
func (s *Store) FollowingFeed(wallet string) []types.Meme {
	followingIDs := map[string]bool{}

	s.followsMu.Lock()
	for _, f := range s.follows {
		if f.FollowerID == wallet {
			followingIDs[f.FollowingID] = true
		}
	}
	s.followsMu.Unlock()

	s.memesMu.Lock()
	feed := []types.Meme{}
	for _, m := range s.memes {
		if m.EVMAddress != nil && followingIDs[*m.EVMAddress] {
			feed = append(feed, m)
		}
	}
	s.memesMu.Unlock()

	sort.SliceStable(feed, func(i, j int) bool {
		return feed[i].CreatedAt > feed[j].CreatedAt
	})

	return feed
}

// CommentsForPost returns a post's comments with author profiles attached
// where the wallet is known.
func (s *Store) CommentsForPost(postID int) []types.Comment {
	s.commentsMu.Lock()
	postComments := []types.Comment{}
	for _, c := range s.comments {
		if c.PostID == postID {
			postComments = append(postComments, c)
		}
	}
	s.commentsMu.Unlock()

	s.usersMu.Lock()
	defer s.usersMu.Unlock()
	for i := range postComments {
		for j := range s.users {
			if s.users[j].WalletAddress == postComments[i].UserID {
				user := s.users[j]
				postComments[i].User = &user
				break
			}
		}
	}

	return postComments
}

// AddComment appends the comment, then bumps the post's comment counter.
// Both mutations complete before this returns, but not under one lock.
func (s *Store) AddComment(postID int, userID, text string) types.Comment {
	comment := types.Comment{
		ID:        s.commentIDs.next(),
		PostID:    postID,
		UserID:    userID,
		Text:      text,
		CreatedAt: nowRFC3339(),
	}

	s.commentsMu.Lock()
	s.comments = append(s.comments, comment)
	s.commentsMu.Unlock()

	s.memesMu.Lock()
	for i := range s.memes {
		if s.memes[i].ID == postID {
			s.memes[i].CommentCount++
			break
		}
	}
	s.memesMu.Unlock()

	return comment
}

func (s *Store) SendMessage(senderID, receiverID string, content types.MessageContent) types.Message {
	message := types.Message{
		ID:         s.messageIDs.next(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Content:    content,
		Timestamp:  nowRFC3339(),
	}

	s.messagesMu.Lock()
	s.messages = append(s.messages, message)
	s.messagesMu.Unlock()

	return message
}

// Conversations groups every message touching the user by the other
// participant. Each entry carries the latest message, the count of unread
// messages addressed to the user, and the list sorts newest-activity first.
func (s *Store) Conversations(userID string) []types.Conversation {
	grouped := map[string][]types.Message{}

	s.messagesMu.Lock()
	for _, m := range s.messages {
		switch {
		case m.SenderID == userID:
			grouped[m.ReceiverID] = append(grouped[m.ReceiverID], m)
		case m.ReceiverID == userID:
			grouped[m.SenderID] = append(grouped[m.SenderID], m)
		}
	}
	s.messagesMu.Unlock()

	conversations := []types.Conversation{}
	for other, msgs := range grouped {
		sort.SliceStable(msgs, func(i, j int) bool {
			return msgs[i].Timestamp > msgs[j].Timestamp
		})

		last := msgs[0]
		unread := 0
		for _, m := range msgs {
			if m.ReceiverID == userID && !m.IsRead {
				unread++
			}
		}

		conversations = append(conversations, types.Conversation{
			ID:            userID + "_" + other,
			OtherUserID:   other,
			OtherUserName: s.userName(other),
			LastMessage:   &last,
			UnreadCount:   unread,
			UpdatedAt:     last.Timestamp,
		})
	}

	sort.SliceStable(conversations, func(i, j int) bool {
		return conversations[i].UpdatedAt > conversations[j].UpdatedAt
	})

	return conversations
}

// userName resolves a wallet to its display name, nil when the wallet is not
// a registered user.
func (s *Store) userName(wallet string) *string {
	s.usersMu.Lock()
	defer s.usersMu.Unlock()

	for _, u := range s.users {
		if u.WalletAddress == wallet {
			return u.Name
		}
	}
	return nil
}

func (s *Store) MessagesBetween(userID, otherUserID string) []types.Message {
	s.messagesMu.Lock()
	defer s.messagesMu.Unlock()

	msgs := []types.Message{}
	for _, m := range s.messages {
		if (m.SenderID == userID && m.ReceiverID == otherUserID) ||
			(m.SenderID == otherUserID && m.ReceiverID == userID) {
			msgs = append(msgs, m)
		}
	}
	return msgs
}

// MarkMessagesRead flips every unread message from otherUserID to userID and
// returns how many were flipped.
func (s *Store) MarkMessagesRead(userID, otherUserID string) int {
	s.messagesMu.Lock()
	defer s.messagesMu.Unlock()

	marked := 0
	for i := range s.messages {
		m := &s.messages[i]
		if m.ReceiverID == userID && m.SenderID == otherUserID && !m.IsRead {
			m.IsRead = true
			marked++
		}
	}
	return marked
}
