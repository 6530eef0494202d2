package youtube

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/api/option"
	ytapi "google.golang.org/api/youtube/v3"

	"github.com/FrejusAdedemi/wim-plateform/internal/logger"
)

// videosPerRequest is the Data API's cap on ids per videos.list call.
const videosPerRequest = 50

type Video struct {
	ID              string
	Title           string
	Description     string
	ThumbnailURL    string
	DurationSeconds int
	ViewCount       int64
	Embeddable      bool
	PublishedAt     *time.Time
}

type Playlist struct {
	ID           string
	Title        string
	Description  string
	ChannelID    string
	ChannelTitle string
	ThumbnailURL string
	ItemCount    int64
}

type Client struct {
	svc *ytapi.Service
	log *logger.Logger
}

func NewClient(ctx context.Context, apiKey string, baseLog *logger.Logger) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("youtube api key is required")
	}
	svc, err := ytapi.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	clientLog := baseLog.With("client", "YoutubeClient")
	return &Client{svc: svc, log: clientLog}, nil
}

func (c *Client) GetVideoDetails(ctx context.Context, videoID string) (*Video, error) {
	videos, err := c.GetVideosDetails(ctx, []string{videoID})
	if err != nil {
		return nil, err
	}
	if len(videos) == 0 {
		return nil, fmt.Errorf("video %s not found", videoID)
	}
	return videos[0], nil
}

// GetVideosDetails fetches full metadata for the given ids, chunked to the
// API's 50 id limit. Deleted or private videos are silently absent from the
// result.
func (c *Client) GetVideosDetails(ctx context.Context, videoIDs []string) ([]*Video, error) {
	var out []*Video
	for start := 0; start < len(videoIDs); start += videosPerRequest {
		end := start + videosPerRequest
		if end > len(videoIDs) {
			end = len(videoIDs)
		}
		resp, err := c.svc.Videos.
			List([]string{"snippet", "contentDetails", "statistics", "status"}).
			Id(videoIDs[start:end]...).
			Context(ctx).
			Do()
		if err != nil {
			return nil, fmt.Errorf("videos.list: %w", err)
		}
		for _, item := range resp.Items {
			out = append(out, c.mapVideo(item))
		}
	}
	return out, nil
}

func (c *Client) GetPlaylistDetails(ctx context.Context, playlistID string) (*Playlist, error) {
	resp, err := c.svc.Playlists.
		List([]string{"snippet", "contentDetails"}).
		Id(playlistID).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("playlists.list: %w", err)
	}
	if len(resp.Items) == 0 {
		return nil, fmt.Errorf("playlist %s not found", playlistID)
	}
	item := resp.Items[0]
	p := &Playlist{ID: item.Id}
	if item.Snippet != nil {
		p.Title = item.Snippet.Title
		p.Description = item.Snippet.Description
		p.ChannelID = item.Snippet.ChannelId
		p.ChannelTitle = item.Snippet.ChannelTitle
		p.ThumbnailURL = bestThumbnail(item.Snippet.Thumbnails)
	}
	if item.ContentDetails != nil {
		p.ItemCount = item.ContentDetails.ItemCount
	}
	return p, nil
}

// GetPlaylistVideos returns the playlist's videos in playlist order with full
// metadata. maxVideos caps the result when positive.
func (c *Client) GetPlaylistVideos(ctx context.Context, playlistID string, maxVideos int) ([]*Video, error) {
	var ids []string
	pageToken := ""
	for {
		call := c.svc.PlaylistItems.
			List([]string{"contentDetails"}).
			PlaylistId(playlistID).
			MaxResults(videosPerRequest).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		resp, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("playlistItems.list: %w", err)
		}
		for _, item := range resp.Items {
			if item.ContentDetails == nil || item.ContentDetails.VideoId == "" {
				continue
			}
			ids = append(ids, item.ContentDetails.VideoId)
			if maxVideos > 0 && len(ids) >= maxVideos {
				break
			}
		}
		if (maxVideos > 0 && len(ids) >= maxVideos) || resp.NextPageToken == "" {
			break
		}
		pageToken = resp.NextPageToken
	}

	details, err := c.GetVideosDetails(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*Video, len(details))
	for _, v := range details {
		byID[v.ID] = v
	}
	// Preserve playlist order; ids without details were deleted or private.
	out := make([]*Video, 0, len(ids))
	for _, id := range ids {
		if v, ok := byID[id]; ok {
			out = append(out, v)
		}
	}
	return out, nil
}

// GetChannelVideos resolves the channel's uploads playlist and returns its
// videos, newest first as the API orders uploads.
func (c *Client) GetChannelVideos(ctx context.Context, channelID string, maxVideos int) ([]*Video, error) {
	resp, err := c.svc.Channels.
		List([]string{"contentDetails"}).
		Id(channelID).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("channels.list: %w", err)
	}
	if len(resp.Items) == 0 {
		return nil, fmt.Errorf("channel %s not found", channelID)
	}
	item := resp.Items[0]
	if item.ContentDetails == nil || item.ContentDetails.RelatedPlaylists == nil ||
		item.ContentDetails.RelatedPlaylists.Uploads == "" {
		return nil, fmt.Errorf("channel %s has no uploads playlist", channelID)
	}
	return c.GetPlaylistVideos(ctx, item.ContentDetails.RelatedPlaylists.Uploads, maxVideos)
}

func (c *Client) mapVideo(item *ytapi.Video) *Video {
	v := &Video{ID: item.Id}
	if item.Snippet != nil {
		v.Title = item.Snippet.Title
		v.Description = item.Snippet.Description
		v.ThumbnailURL = bestThumbnail(item.Snippet.Thumbnails)
		if item.Snippet.PublishedAt != "" {
			if t, err := time.Parse(time.RFC3339, item.Snippet.PublishedAt); err == nil {
				v.PublishedAt = &t
			}
		}
	}
	if item.ContentDetails != nil && item.ContentDetails.Duration != "" {
		seconds, err := ParseISODuration(item.ContentDetails.Duration)
		if err != nil {
			c.log.Warn("Could not parse video duration",
				"video_id", item.Id,
				"duration", item.ContentDetails.Duration,
				"error", err)
		}
		v.DurationSeconds = seconds
	}
	if item.Statistics != nil {
		v.ViewCount = int64(item.Statistics.ViewCount)
	}
	if item.Status != nil {
		v.Embeddable = item.Status.Embeddable
	}
	return v
}

func bestThumbnail(t *ytapi.ThumbnailDetails) string {
	if t == nil {
		return ""
	}
	for _, th := range []*ytapi.Thumbnail{t.Maxres, t.Standard, t.High, t.Medium, t.Default} {
		if th != nil && th.Url != "" {
			return th.Url
		}
	}
	return ""
}
