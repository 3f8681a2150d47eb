package memes

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/memestream/memestream-service/internal/memstore"
	"github.com/memestream/memestream-service/internal/services/media"
	"github.com/memestream/memestream-service/internal/types"
	"github.com/memestream/memestream-service/internal/utils/response"
)

// GetMemes returns the global feed, most popular first
// @Summary Get trending memes
// @Description Sorted by likes + comment count descending
// @Tags memes
// @Produce json
// @Router /memes [get]
func GetMemes(store *memstore.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.WriteJSON(w, http.StatusOK, store.TrendingMemes())
	}
}

// LikeMeme increments a meme's like counter
// @Summary Like a meme
// @Tags memes
// @Produce json
// @Param id path int true "Meme ID"
// @Failure 404 {object} response.Response "Meme not found"
// @Router /memes/{id}/like [post]
func LikeMeme(store *memstore.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		memeID, err := strconv.Atoi(r.PathValue("id"))
		if err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errors.New("invalid meme id")))
			return
		}

		meme, err := store.LikeMeme(memeID)
		if err != nil {
			response.WriteJSON(w, http.StatusNotFound, response.GeneralError(memstore.ErrMemeNotFound))
			return
		}

		response.WriteJSON(w, http.StatusOK, meme)
	}
}

// UploadMeme creates a meme from a multipart form
// @Summary Upload a meme
// @Description Form parts: caption, tags, image_url, evm_address, image (binary). A binary part is stored and its URL replaces image_url.
// @Tags memes
// @Accept multipart/form-data
// @Produce json
// @Router /memes [post]
func UploadMeme(store *memstore.Store, mediaService *media.Service, maxFileSize int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(maxFileSize); err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errors.New("invalid multipart form")))
			return
		}

		caption := r.FormValue("caption")
		tags := r.FormValue("tags")
		imageURL := r.FormValue("image_url")

		var evmAddress *string
		if addr := r.FormValue("evm_address"); addr != "" {
			evmAddress = &addr
		}

		mediaType := types.MediaTypeImage

		file, header, err := r.FormFile("image")
		if err == nil {
			defer file.Close()

			url, uploadErr := mediaService.Upload(r.Context(), file, header.Size, header.Filename)
			if uploadErr != nil {
				slog.Error("media upload failed", slog.String("error", uploadErr.Error()), slog.String("filename", header.Filename))
				response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(errors.New("failed to store media")))
				return
			}
			imageURL = url

			if strings.HasPrefix(media.ContentTypeForFilename(header.Filename), "video/") {
				mediaType = types.MediaTypeVideo
			}
		} else if !errors.Is(err, http.ErrMissingFile) {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errors.New("invalid image part")))
			return
		}

		meme := store.AddMeme(caption, tags, imageURL, evmAddress, mediaType)
		slog.Info("meme uploaded", slog.Int("meme_id", meme.ID))

		response.WriteJSON(w, http.StatusOK, meme)
	}
}

// GetComments lists a post's comments
// @Summary Get comments for a meme
// @Tags comments
// @Produce json
// @Param post_id path int true "Meme ID"
// @Router /memes/{post_id}/comments [get]
func GetComments(store *memstore.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		postID, err := strconv.Atoi(r.PathValue("post_id"))
		if err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errors.New("invalid post id")))
			return
		}

		response.WriteJSON(w, http.StatusOK, store.CommentsForPost(postID))
	}
}

// AddComment appends a comment and bumps the post's counter
// @Summary Comment on a meme
// @Tags comments
// @Accept json
// @Produce json
// @Param post_id path int true "Meme ID"
// @Router /memes/{post_id}/comments [post]
func AddComment(store *memstore.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		postID, err := strconv.Atoi(r.PathValue("post_id"))
		if err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errors.New("invalid post id")))
			return
		}

		var req types.AddCommentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		validate := validator.New()
		if err := validate.Struct(req); err != nil {
			if ve, ok := err.(validator.ValidationErrors); ok {
				response.WriteJSON(w, http.StatusBadRequest, response.ValidationError(ve))
				return
			}
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		comment := store.AddComment(postID, req.UserID, req.Text)
		slog.Info("comment added", slog.Int("post_id", postID))

		response.WriteJSON(w, http.StatusOK, comment)
	}
}

// FollowingFeed returns posts from followed wallets, newest first
// @Summary Get the following feed
// @Tags memes
// @Produce json
// @Param user_id path string true "Wallet address"
// @Router /feed/{user_id} [get]
func FollowingFeed(store *memstore.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.WriteJSON(w, http.StatusOK, store.FollowingFeed(r.PathValue("user_id")))
	}
}
