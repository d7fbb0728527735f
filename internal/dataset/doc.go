// Package dataset reads detector geometry and hit tables from CSV files and
// writes doublet lists back out.
//
// Two hit formats are recognised by their header row: a prepared hit table
// (hit_id,layer,phi_slice,r,z) whose hits are already binned, and a raw
// TrackML-style table (hit_id,x,y,z,volume_id,layer_id,...) whose hits are
// mapped to sequential layers through the geometry table and binned in
// azimuth with geometry.BinPhi.
package dataset
