package schema

// ContentType identifies the kind of a ContentPart.
type ContentType string

const (
	ContentText  ContentType = "text"
	ContentImage ContentType = "image"
	ContentAudio ContentType = "audio"
	ContentVideo ContentType = "video"
	ContentFile  ContentType = "file"
)

// ContentPart is one piece of a (possibly multi-part) message body.
// Vantage's own LLM traffic is text-only; the multi-part shape is kept
// because ingestion's image/OCR extractor port and document-attachment
// pipeline (§4.6) pass image and file parts through the same LLM message
// plumbing used for chat.
type ContentPart interface {
	PartType() ContentType
}

// TextPart is plain text content.
type TextPart struct {
	Text string
}

func (TextPart) PartType() ContentType { return ContentText }

// ImagePart is image content, either inline bytes or a URL.
type ImagePart struct {
	Data     []byte
	MimeType string
	URL      string
}

func (ImagePart) PartType() ContentType { return ContentImage }

// AudioPart is audio content. Unused by any Vantage operation today; kept
// so the ContentPart set matches what the shared LLM message plumbing
// expects from any caller.
type AudioPart struct {
	Data       []byte
	Format     string
	SampleRate int
}

func (AudioPart) PartType() ContentType { return ContentAudio }

// VideoPart is video content. Unused by any Vantage operation today.
type VideoPart struct {
	Data     []byte
	MimeType string
	URL      string
}

func (VideoPart) PartType() ContentType { return ContentVideo }

// FilePart is an opaque file attachment, used by the document-attachment
// sub-pipeline (§4.6) to pass extracted file bytes through to the LLM.
type FilePart struct {
	Data     []byte
	Name     string
	MimeType string
}

func (FilePart) PartType() ContentType { return ContentFile }
