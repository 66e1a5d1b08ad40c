// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package drive

// RootID is the well-known reference of the drive root.
const RootID = "root"

// RemotePath is an ordered list of non-empty segment names.
type RemotePath []string

func (p RemotePath) String() string {
	return joinSegments(p)
}

// NodeRef identifies a resolved remote node.
type NodeRef struct {
	ID      string
	Created bool
}

var rootRef = NodeRef{ID: RootID}

// Item is the subset of a driveItem the SDK cares about.
type Item struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Size   int64   `json:"size,omitempty"`
	WebURL string  `json:"webUrl,omitempty"`
	Folder *Folder `json:"folder,omitempty"`
	File   *File   `json:"file,omitempty"`
}

type Folder struct {
	ChildCount int `json:"childCount"`
}

type File struct {
	MimeType string `json:"mimeType,omitempty"`
}

type createFolderRequest struct {
	Name             string   `json:"name"`
	Folder           struct{} `json:"folder"`
	ConflictBehavior string   `json:"@microsoft.graph.conflictBehavior"`
}

type uploadSession struct {
	UploadURL          string   `json:"uploadUrl"`
	ExpirationDateTime string   `json:"expirationDateTime,omitempty"`
	NextExpectedRanges []string `json:"nextExpectedRanges,omitempty"`
}

// ChunkDescriptor is one byte range of a chunked transfer; End is inclusive.
type ChunkDescriptor struct {
	Index  int
	Start  int64
	End    int64
	Length int64
}

// LinkOptions selects the kind of sharing link to create.
type LinkOptions struct {
	Type  string `json:"type"`
	Scope string `json:"scope"`
}

// Permission is the createLink response.
type Permission struct {
	ID   string `json:"id"`
	Link struct {
		Type   string `json:"type"`
		Scope  string `json:"scope"`
		WebURL string `json:"webUrl"`
	} `json:"link"`
}
