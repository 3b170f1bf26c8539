// Package intake publishes seed artwork and its metadata document to blob
// storage and registers the seed in the catalog.
package intake

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"plantary/internal/blob"
	"plantary/internal/core"
	"plantary/pkg/domain"
	"strconv"
	"strings"
	"time"
)

// DefaultMaxImageBytes bounds artwork uploads.
const DefaultMaxImageBytes = 10 << 20

// Key prefixes for published objects.
const (
	ImagePrefix    = "seeds/images/"
	MetadataPrefix = "seeds/meta/"
)

// Intake errors.
var (
	ErrImageTooLarge  = errors.New("seed image too large")
	ErrInvalidRequest = errors.New("invalid seed request")
)

// Catalog is the service surface intake needs.
type Catalog interface {
	AssertAdmin(ctx context.Context) error
	CreateSeed(ctx context.Context, input core.SeedInput) (domain.Seed, domain.Result, error)
}

// Request describes one seed submission.
type Request struct {
	Kind        domain.Kind
	Category    domain.Category
	Rarity      float64
	Edition     uint32
	Name        string
	Description string
	Artist      string
	Visibility  string
	SeededOn    time.Time
	ContentType string
	Image       io.Reader
}

// Attribute is a trait entry in the metadata document.
type Attribute struct {
	TraitType string `json:"trait_type"`
	Value     any    `json:"value"`
}

// Metadata is the JSON document a seed descriptor points at. One document
// describes every veggie minted from the seed, so it carries no minter.
type Metadata struct {
	Type        string      `json:"type"`
	Seeder      string      `json:"seeder"`
	Seeded      string      `json:"seeded"`
	SeededOn    string      `json:"seededOn"`
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	Image       string      `json:"image"`
	Visibility  string      `json:"visibility"`
	Attributes  []Attribute `json:"attributes"`
}

// Result reports what Sow published.
type Result struct {
	Seed        domain.Seed
	ImageKey    string
	MetadataKey string
	Descriptor  string
}

// Option customises an Intake.
type Option func(*Intake)

// WithPublicBaseURL prefixes object keys to form public URLs. Without it
// descriptors are bare blob keys.
func WithPublicBaseURL(base string) Option {
	return func(in *Intake) {
		if base != "" && !strings.HasSuffix(base, "/") {
			base += "/"
		}
		in.baseURL = base
	}
}

// WithMaxImageBytes overrides DefaultMaxImageBytes.
func WithMaxImageBytes(n int64) Option {
	return func(in *Intake) {
		if n > 0 {
			in.maxImage = n
		}
	}
}

// WithLogger sets the logger used for cleanup failures.
func WithLogger(logger core.Logger) Option {
	return func(in *Intake) {
		if logger != nil {
			in.logger = logger
		}
	}
}

// WithClock sets the clock used for the seededOn date when a request omits it.
func WithClock(clock core.Clock) Option {
	return func(in *Intake) {
		if clock != nil {
			in.clock = clock
		}
	}
}

// Intake runs the upload, describe, register sequence.
type Intake struct {
	store    blob.Store
	catalog  Catalog
	baseURL  string
	maxImage int64
	logger   core.Logger
	clock    core.Clock
	inflight keyLocks
}

// New constructs an Intake.
func New(store blob.Store, catalog Catalog, opts ...Option) *Intake {
	in := &Intake{store: store, catalog: catalog, maxImage: DefaultMaxImageBytes, logger: discardLogger{}, clock: core.ClockFunc(time.Now)}
	for _, opt := range opts {
		if opt != nil {
			opt(in)
		}
	}
	return in
}

// Sow uploads the artwork, then the metadata document referencing it, then
// creates the seed with the metadata URL as descriptor. Objects are keyed by
// content digest so identical uploads are shared. Objects this call created
// are deleted again when a later step fails. Calls that share artwork run one
// at a time, so a failing call never deletes an object another call reused.
func (in *Intake) Sow(ctx context.Context, req Request) (Result, error) {
	if err := in.catalog.AssertAdmin(ctx); err != nil {
		return Result{}, err
	}
	if err := validate(req); err != nil {
		return Result{}, err
	}
	image, err := in.readImage(req.Image)
	if err != nil {
		return Result{}, err
	}
	contentType := req.ContentType
	if contentType == "" {
		contentType = http.DetectContentType(image)
	}

	var created []string
	fail := func(err error) (Result, error) {
		in.cleanup(ctx, created)
		return Result{}, err
	}

	imageKey := ImagePrefix + digest(image) + extensionFor(contentType)
	// The metadata document embeds the image url, so the image key covers both objects.
	unlock := in.inflight.lock(imageKey)
	defer unlock()
	fresh, err := in.putShared(ctx, imageKey, image, blob.PutOptions{ContentType: contentType})
	if err != nil {
		return fail(fmt.Errorf("upload image: %w", err))
	}
	if fresh {
		created = append(created, imageKey)
	}

	caller, _ := core.CallerFrom(ctx)
	if req.SeededOn.IsZero() {
		req.SeededOn = in.clock.Now()
	}
	doc, err := json.Marshal(describe(req, string(caller), in.url(imageKey)))
	if err != nil {
		return fail(fmt.Errorf("encode metadata: %w", err))
	}
	metaKey := MetadataPrefix + digest(doc) + ".json"
	fresh, err = in.putShared(ctx, metaKey, doc, blob.PutOptions{
		ContentType: "application/json",
		Metadata:    map[string]string{"image": imageKey},
	})
	if err != nil {
		return fail(fmt.Errorf("upload metadata: %w", err))
	}
	if fresh {
		created = append(created, metaKey)
	}

	descriptor := in.url(metaKey)
	edition := req.Edition
	if edition == 0 {
		edition = 1
	}
	seed, _, err := in.catalog.CreateSeed(ctx, core.SeedInput{
		Kind:       req.Kind,
		Category:   req.Category,
		Descriptor: descriptor,
		Rarity:     req.Rarity,
		Edition:    edition,
	})
	if err != nil {
		return fail(err)
	}
	return Result{Seed: seed, ImageKey: imageKey, MetadataKey: metaKey, Descriptor: descriptor}, nil
}

// FetchMetadata reads and decodes the metadata document stored under key.
func (in *Intake) FetchMetadata(ctx context.Context, key string) (Metadata, error) {
	key = strings.TrimPrefix(key, in.baseURL)
	_, rc, err := in.store.Get(ctx, key)
	if err != nil {
		return Metadata{}, err
	}
	defer rc.Close()
	var md Metadata
	if err := json.NewDecoder(rc).Decode(&md); err != nil {
		return Metadata{}, fmt.Errorf("decode metadata %s: %w", key, err)
	}
	return md, nil
}

func validate(req Request) error {
	if err := domain.ValidateKind(req.Kind); err != nil {
		return err
	}
	if err := domain.ValidateCategory(req.Category); err != nil {
		return err
	}
	if err := domain.ValidateRarity(req.Rarity); err != nil {
		return err
	}
	if strings.TrimSpace(req.Name) == "" {
		return fmt.Errorf("%w: name required", ErrInvalidRequest)
	}
	if req.Image == nil {
		return fmt.Errorf("%w: image required", ErrInvalidRequest)
	}
	return nil
}

func (in *Intake) readImage(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, in.maxImage+1))
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	if int64(len(data)) > in.maxImage {
		return nil, fmt.Errorf("%w: limit %d bytes", ErrImageTooLarge, in.maxImage)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: image empty", ErrInvalidRequest)
	}
	return data, nil
}

// putShared stores data under a content-addressed key. An existing object
// under the same key already holds these bytes, so ErrExists is not an
// error; fresh reports whether this call wrote the object.
func (in *Intake) putShared(ctx context.Context, key string, data []byte, opts blob.PutOptions) (fresh bool, err error) {
	_, err = in.store.Put(ctx, key, bytes.NewReader(data), opts)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, blob.ErrExists):
		return false, nil
	default:
		return false, err
	}
}

func (in *Intake) cleanup(ctx context.Context, keys []string) {
	ctx = context.WithoutCancel(ctx)
	for _, key := range keys {
		if _, err := in.store.Delete(ctx, key); err != nil {
			in.logger.Warn("seed intake cleanup failed", "key", key, "error", err)
		}
	}
}

func (in *Intake) url(key string) string {
	return in.baseURL + key
}

func describe(req Request, seeder, imageURL string) Metadata {
	visibility := req.Visibility
	if visibility == "" {
		visibility = "safe"
	}
	return Metadata{
		Type:        "NEP4",
		Seeder:      seeder,
		Seeded:      "seeded on Plantary",
		SeededOn:    req.SeededOn.UTC().Format("2006-01-02"),
		Name:        req.Name,
		Description: req.Description,
		Image:       imageURL,
		Visibility:  visibility,
		Attributes: []Attribute{
			{TraitType: "vtype", Value: strconv.Itoa(int(req.Kind))},
			{TraitType: "vsubtype", Value: strconv.Itoa(int(req.Category))},
			{TraitType: "artist", Value: req.Artist},
			{TraitType: "rarity", Value: req.Rarity},
		},
	}
}

func digest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

var extensions = map[string]string{
	"image/png":     ".png",
	"image/jpeg":    ".jpg",
	"image/gif":     ".gif",
	"image/webp":    ".webp",
	"image/svg+xml": ".svg",
}

func extensionFor(contentType string) string {
	base, _, _ := strings.Cut(contentType, ";")
	if ext, ok := extensions[strings.TrimSpace(base)]; ok {
		return ext
	}
	return ".bin"
}

type discardLogger struct{}

func (discardLogger) Debug(string, ...any) {}
func (discardLogger) Info(string, ...any)  {}
func (discardLogger) Warn(string, ...any)  {}
func (discardLogger) Error(string, ...any) {}
