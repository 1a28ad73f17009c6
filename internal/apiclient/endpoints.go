package apiclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
)

// ListItemsParams are the server-side filters of GET /items.
type ListItemsParams struct {
	ListingType   string
	ItemCondition string
	MinPrice      *int64
	MaxPrice      *int64
	CategoryID    int
	Page          int
	Limit         int
}

// Values encodes the params, leaving out unset ones.
func (p ListItemsParams) Values() url.Values {
	q := url.Values{}
	if p.ListingType != "" {
		q.Set("listing_type", p.ListingType)
	}
	if p.ItemCondition != "" {
		q.Set("item_condition", p.ItemCondition)
	}
	if p.MinPrice != nil {
		q.Set("min_price", strconv.FormatInt(*p.MinPrice, 10))
	}
	if p.MaxPrice != nil {
		q.Set("max_price", strconv.FormatInt(*p.MaxPrice, 10))
	}
	if p.CategoryID > 0 {
		q.Set("category_id", strconv.Itoa(p.CategoryID))
	}
	if p.Page > 0 {
		q.Set("page", strconv.Itoa(p.Page))
	}
	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}
	return q
}

// ListItems handles GET /items.
func (c *Client) ListItems(ctx context.Context, p ListItemsParams) ([]ItemRecord, error) {
	var raw json.RawMessage
	if err := c.getJSON(ctx, "/items", p.Values(), &raw); err != nil {
		return nil, err
	}
	return decodeList[ItemRecord](raw)
}

// GetItem handles GET /items/{id}.
func (c *Client) GetItem(ctx context.Context, id string) (ItemRecord, error) {
	var raw json.RawMessage
	if err := c.getJSON(ctx, "/items/"+url.PathEscape(id), nil, &raw); err != nil {
		return ItemRecord{}, err
	}
	return decodeOne[ItemRecord](raw)
}

// CreatePost handles POST /posts. A response without a listing body yields
// a zero record.
func (c *Client) CreatePost(ctx context.Context, payload PostPayload, images []File) (ItemRecord, error) {
	var raw json.RawMessage
	if err := c.sendMultipart(ctx, http.MethodPost, "/posts", payload, images, &raw); err != nil {
		return ItemRecord{}, err
	}
	return decodeAck[ItemRecord](raw), nil
}

// UpdatePost handles PUT /posts/{id}. A response without a listing body
// yields a zero record.
func (c *Client) UpdatePost(ctx context.Context, id string, payload PostPayload, images []File) (ItemRecord, error) {
	var raw json.RawMessage
	if err := c.sendMultipart(ctx, http.MethodPut, "/posts/"+url.PathEscape(id), payload, images, &raw); err != nil {
		return ItemRecord{}, err
	}
	return decodeAck[ItemRecord](raw), nil
}

// GetProfile handles GET /profile?user_id=.
func (c *Client) GetProfile(ctx context.Context, userID string) (ProfileRecord, error) {
	var raw json.RawMessage
	if err := c.getJSON(ctx, "/profile", url.Values{"user_id": {userID}}, &raw); err != nil {
		return ProfileRecord{}, err
	}
	return decodeOne[ProfileRecord](raw)
}

// UpdateProfile handles PUT /profile. The backend may answer with the
// updated profile or with an empty body; the latter yields a zero record.
func (c *Client) UpdateProfile(ctx context.Context, payload UpdateProfilePayload) (ProfileRecord, error) {
	var raw json.RawMessage
	if err := c.sendJSON(ctx, http.MethodPut, "/profile", payload, &raw); err != nil {
		return ProfileRecord{}, err
	}
	return decodeAck[ProfileRecord](raw), nil
}

// ListUserItems handles GET /profile/listings?user_id=.
func (c *Client) ListUserItems(ctx context.Context, userID string) ([]ItemRecord, error) {
	var raw json.RawMessage
	if err := c.getJSON(ctx, "/profile/listings", url.Values{"user_id": {userID}}, &raw); err != nil {
		return nil, err
	}
	return decodeList[ItemRecord](raw)
}

// GetUserItem handles GET /profile/items/{id}?user_id=.
func (c *Client) GetUserItem(ctx context.Context, userID, itemID string) (ItemRecord, error) {
	var raw json.RawMessage
	if err := c.getJSON(ctx, "/profile/items/"+url.PathEscape(itemID), url.Values{"user_id": {userID}}, &raw); err != nil {
		return ItemRecord{}, err
	}
	return decodeOne[ItemRecord](raw)
}

// DeleteUserItem handles DELETE /profile/items/{id}?user_id=.
func (c *Client) DeleteUserItem(ctx context.Context, userID, itemID string) error {
	return c.do(ctx, http.MethodDelete, "/profile/items/"+url.PathEscape(itemID), url.Values{"user_id": {userID}}, nil, "", nil)
}

// AuthGoogle handles POST /auth/google.
func (c *Client) AuthGoogle(ctx context.Context, idToken string) (AuthResponse, error) {
	var raw json.RawMessage
	if err := c.sendJSON(ctx, http.MethodPost, "/auth/google", map[string]string{"id_token": idToken}, &raw); err != nil {
		return AuthResponse{}, err
	}
	return decodeOne[AuthResponse](raw)
}
