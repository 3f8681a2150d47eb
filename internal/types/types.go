package types

type MediaType string

const (
	MediaTypeImage MediaType = "image"
	MediaTypeVideo MediaType = "video"
)

// User is the wallet-keyed demo user held by the in-memory store. It is
// deliberately separate from the relational account model in types/auth.
type User struct {
	WalletAddress  string  `json:"wallet_address"`
	Email          *string `json:"email"`
	Name           *string `json:"name"`
	ProfilePicture *string `json:"profile_picture"`
	Bio            *string `json:"bio"`
	OAuthProvider  string  `json:"oauth_provider"`
	OAuthID        string  `json:"oauth_id"`
	CreatedAt      string  `json:"created_at"`
	FollowersCount int     `json:"followers_count"`
	FollowingCount int     `json:"following_count"`
}

type RegisterUserRequest struct {
	WalletAddress  string  `json:"wallet_address" validate:"required"`
	Email          *string `json:"email"`
	Name           *string `json:"name"`
	ProfilePicture *string `json:"profile_picture"`
	Bio            *string `json:"bio"`
	OAuthProvider  string  `json:"oauth_provider" validate:"required"`
	OAuthID        string  `json:"oauth_id" validate:"required"`
}

type UpdateUserRequest struct {
	Name           *string `json:"name"`
	Bio            *string `json:"bio"`
	ProfilePicture *string `json:"profile_picture"`
}

type Meme struct {
	ID           int       `json:"id"`
	Caption      string    `json:"caption"`
	Tags         string    `json:"tags"`
	Image        string    `json:"image"`
	Video        *string   `json:"video,omitempty"`
	MediaType    MediaType `json:"media_type"`
	EVMAddress   *string   `json:"evm_address,omitempty"`
	User         *User     `json:"user,omitempty"`
	Likes        int       `json:"likes"`
	CommentCount int       `json:"comment_count"`
	IsLiked      bool      `json:"is_liked"`
	CreatedAt    string    `json:"created_at"`
}

type Comment struct {
	ID        int    `json:"id"`
	PostID    int    `json:"post_id"`
	UserID    string `json:"user_id"`
	User      *User  `json:"user,omitempty"`
	Text      string `json:"text"`
	CreatedAt string `json:"created_at"`
	Likes     int    `json:"likes"`
	IsLiked   bool   `json:"is_liked"`
}

type AddCommentRequest struct {
	UserID string `json:"user_id" validate:"required"`
	Text   string `json:"text" validate:"required"`
}

type Follow struct {
	FollowerID  string `json:"follower_id"`
	FollowingID string `json:"following_id"`
	CreatedAt   string `json:"created_at"`
}

type FollowRequest struct {
	FollowerID  string `json:"follower_id" validate:"required"`
	FollowingID string `json:"following_id" validate:"required"`
}

type MessageContentType string

const (
	MessageContentText  MessageContentType = "text"
	MessageContentMeme  MessageContentType = "meme"
	MessageContentImage MessageContentType = "image"
	MessageContentVideo MessageContentType = "video"
)

type MessageContent struct {
	Type     MessageContentType `json:"type"`
	Text     *string            `json:"text,omitempty"`
	MemeID   *int               `json:"meme_id,omitempty"`
	MediaURL *string            `json:"media_url,omitempty"`
}

type Message struct {
	ID         int            `json:"id"`
	SenderID   string         `json:"sender_id"`
	ReceiverID string         `json:"receiver_id"`
	Content    MessageContent `json:"content"`
	Timestamp  string         `json:"timestamp"`
	IsRead     bool           `json:"is_read"`
}

type SendMessageRequest struct {
	SenderID   string         `json:"sender_id" validate:"required"`
	ReceiverID string         `json:"receiver_id" validate:"required"`
	Content    MessageContent `json:"content" validate:"required"`
}

// Conversation is the per-partner summary returned by the conversations
// endpoint: the latest message plus how many of the partner's messages the
// current user has not read yet.
type Conversation struct {
	ID            string   `json:"id"`
	OtherUserID   string   `json:"other_user_id"`
	OtherUserName *string  `json:"other_user_name"`
	LastMessage   *Message `json:"last_message"`
	UnreadCount   int      `json:"unread_count"`
	UpdatedAt     string   `json:"updated_at"`
}
