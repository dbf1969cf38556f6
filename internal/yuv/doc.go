// Package yuv turns raw Y4M frame payloads into normalized YCbCr samples.
//
// Decode locates the three planes inside a frame and normalizes code values
// to video range: luma to [0,1] and chroma to [-0.5,0.5] for nominal input.
// Upsample then brings 4:2:0 chroma to full resolution by 2x2 replication
// and interleaves the planes into a single Image.
package yuv
