// Package pebblestore wraps a Pebble database with the fsync policy used by
// the durable commit log.
//
// Usage:
//
//	db, err := pebblestore.Open(pebblestore.Options{
//	    Dir:   "./data",
//	    Fsync: pebblestore.FsyncAlways,
//	})
//	if err != nil { /* handle */ }
//	defer db.Close()
//
//	b := db.NewBatch()
//	_ = b.Set([]byte("k"), []byte("v"), nil)
//	_ = db.Commit(b)
//	b.Close()
//
//	v, err := db.Get([]byte("k"))
package pebblestore
