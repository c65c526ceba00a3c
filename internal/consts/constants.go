package consts

// Allowed upload content types
const (
	MimeJPEG = "image/jpeg"
	MimePNG  = "image/png"
	MimeWebP = "image/webp"
	MimeGIF  = "image/gif"
)

// Multipart form field names
const (
	FieldImage      = "image"
	FieldChatID     = "chatId"
	FieldKey        = "key"
	FieldUserID     = "userId"
	FieldCaption    = "caption"
	FieldMongoURI   = "mongouri"
	FieldCollection = "collection"
	FieldCompress   = "compress"
)

// Response messages
const (
	MsgUploadSuccess      = "Upload successful"
	MsgUploadFailed       = "Upload failed"
	MsgRateLimited        = "Too many uploads, please try again later"
	MsgMissingFields      = "Missing required fields"
	MsgBadImageType       = "Only images (jpeg, png, webp, gif) are allowed"
	MsgNoImages           = "No images found for this user"
	MsgGalleryFailed      = "Failed to retrieve gallery"
	MsgFileURLFailed      = "Failed to retrieve file URL"
	MsgFileIDRequired     = "fileId is required"
	MsgAPIKeyRequired     = "API key is required"
	MsgMongoURIRequired   = "MongoDB URI is required"
	MsgUserIDRequired     = "User ID is required"
	MsgMongoCfgRequired   = "MongoDB URI and collection name are required"
	MsgResolveSuccess     = "SUCCESS"
	MsgFileFetchError     = "Error fetching file URL"
	MsgPlaceholderMissing = "Placeholder file not found"
	MsgNoPlaceholder      = "No placeholder found for the given fileId"
	MsgNoGallery          = "No gallery found for the specified chatId"
	MsgPlaceholderDBError = "Error searching DB for placeholder"
	MsgNoPlaceholderHints = "No placeholder fileId provided and no userId/chatId for DB search"
)

// Defaults shared across packages
const (
	DefaultCollection = "UNLIMCLOUD"
	DefaultPort       = "8080"
)
