// Package extraction runs one sound extraction job end to end.
//
// An Engine locates the newest asset index under a Minecraft folder, reduces
// it to a hash index of sound files, walks the content-addressed object store,
// and copies every match into <output>/ogg under its logical filename. When
// output formats are selected the copied files are converted through a
// transcode.Codec into <output>/<format>, and the intermediate ogg files are
// removed afterwards unless the job keeps originals.
//
// Progress is reported through Event values: free-form log lines, percent
// updates tagged with a phase, and exactly one terminal done or failed event
// carrying the job Summary. Per-file copy and conversion failures never stop a
// job; they are counted in the summary. Only a missing asset index, an empty
// index, an unavailable codec, or cancellation fail the job.
package extraction
