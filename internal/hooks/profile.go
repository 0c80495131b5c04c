package hooks

import (
	"bytes"
	"context"
	"io"

	"zurura-client/internal/api"
	"zurura-client/internal/event"
	"zurura-client/internal/model"
	"zurura-client/internal/query"
	"zurura-client/internal/session"
	"zurura-client/internal/util"
	"zurura-client/pkg/apierror"
)

type photoArgs struct {
	filename string
	content  io.Reader
}

type Profile struct {
	api     *api.Profile
	cache   *query.Client
	session *session.Session
	bus     event.Bus

	update *query.Mutation[model.ProfilePatch, model.User]
	upload *query.Mutation[photoArgs, model.PhotoUpload]
}

func NewProfile(profileAPI *api.Profile, cache *query.Client, sess *session.Session, bus event.Bus) *Profile {
	if bus == nil {
		bus = event.Nop{}
	}

	h := &Profile{api: profileAPI, cache: cache, session: sess, bus: bus}

	h.update = query.NewMutation(func(ctx context.Context, patch model.ProfilePatch) (model.User, error) {
		resp, err := h.api.Update(ctx, patch)
		return resp.Data, err
	}, query.MutationHooks[model.ProfilePatch, model.User]{
		OnSuccess: func(ctx context.Context, _ model.ProfilePatch, user model.User) {
			h.remember(ctx, user)
			h.bus.Publish(event.New(event.TypeProfileUpdated, user.ID, nil))
		},
	})

	h.upload = query.NewMutation(func(ctx context.Context, args photoArgs) (model.PhotoUpload, error) {
		resp, err := h.api.UploadPhoto(ctx, args.filename, args.content)
		return resp.Data, err
	}, query.MutationHooks[photoArgs, model.PhotoUpload]{
		OnSuccess: func(context.Context, photoArgs, model.PhotoUpload) {
			h.cache.Invalidate(keyProfile)
			h.bus.Publish(event.New(event.TypeProfileUpdated, "", nil))
		},
	})

	return h
}

// Get always asks the backend; the profile is never considered fresh.
func (h *Profile) Get(ctx context.Context) (model.User, error) {
	return h.query().Fetch(ctx)
}

func (h *Profile) State(ctx context.Context) query.State[model.User] {
	return h.query().State(ctx)
}

// Update sends only the fields of desired that are set and differ from the
// last known profile. Nothing is sent when nothing changed.
func (h *Profile) Update(ctx context.Context, desired model.User) (model.User, error) {
	current, err := h.current(ctx)
	if err != nil {
		return model.User{}, err
	}

	patch := model.ComputePatch(current, desired)
	if patch.IsEmpty() {
		return current, nil
	}

	updated, err := h.update.Mutate(ctx, patch)
	if err != nil {
		return model.User{}, err
	}
	if updated.ID == "" {
		// Backend answered with a bare message.
		updated = patch.Apply(current)
		h.remember(ctx, updated)
	}
	return updated, nil
}

// UploadPhoto downsizes the image to a JPEG before uploading it.
func (h *Profile) UploadPhoto(ctx context.Context, filename string, content io.Reader) (model.PhotoUpload, error) {
	prepared, err := util.PreparePhoto(content, util.DefaultPhotoSize)
	if err != nil {
		return model.PhotoUpload{}, apierror.RequestFailed(err)
	}

	return h.upload.Mutate(ctx, photoArgs{filename: util.JPEGName(filename), content: bytes.NewReader(prepared)})
}

func (h *Profile) IsUpdating() bool {
	return h.update.IsPending()
}

func (h *Profile) IsUploading() bool {
	return h.upload.IsPending()
}

func (h *Profile) current(ctx context.Context) (model.User, error) {
	if value, ok := h.cache.GetData(keyProfile); ok {
		if user, ok := value.(model.User); ok {
			return user, nil
		}
	}
	return h.Get(ctx)
}

func (h *Profile) remember(ctx context.Context, user model.User) {
	h.query().SetData(user)
	if h.session != nil {
		h.session.SetUser(ctx, user)
	}
}

func (h *Profile) query() *query.Query[model.User] {
	return query.NewQuery(h.cache, keyProfile, func(ctx context.Context) (model.User, error) {
		resp, err := h.api.Get(ctx)
		return resp.Data, err
	}, query.StaleTime(profileStaleTime), query.Enabled(signedIn(h.session)))
}
