package assetdb

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mwantia/assetdb/data"
	"github.com/mwantia/assetdb/fileutil"
)

// Move moves the asset at srcURL to destURL. Moves between asset mounts keep
// every uuid; a rename of a single file regenerates its imports.
func (db *AssetDB) Move(ctx context.Context, srcURL, destURL string) ([]data.MoveResult, error) {
	src, err := db.URLToPath(srcURL)
	if err != nil {
		return nil, err
	}
	dest, err := db.URLToPath(destURL)
	if err != nil {
		return nil, err
	}

	return do[[]data.MoveResult](ctx, db, Task{
		Name: "move",
		Run: func(ctx context.Context) (any, error) {
			return db.move(ctx, src, dest)
		},
	})
}

func (db *AssetDB) move(ctx context.Context, src, dest string) ([]data.MoveResult, error) {
	srcMount := db.store.MountInfo(src)
	if srcMount == nil {
		return nil, fmt.Errorf("%w: %s", data.ErrNotMounted, src)
	}
	destMount := db.store.MountInfo(dest)
	if destMount == nil {
		return nil, fmt.Errorf("%w: %s", data.ErrNotMounted, dest)
	}

	if err := db.checkMove(src, dest); err != nil {
		return nil, err
	}

	switch {
	case srcMount.Type == data.MountTypeAsset && destMount.Type == data.MountTypeAsset:
		return db.assetMove(ctx, src, dest)
	case srcMount.Type == data.MountTypeRaw && destMount.Type == data.MountTypeRaw:
		return db.rawMove(src, dest)
	case srcMount.Type == data.MountTypeAsset && destMount.Type == data.MountTypeRaw:
		return db.assetToRawMove(ctx, src, dest)
	case srcMount.Type == data.MountTypeRaw && destMount.Type == data.MountTypeAsset:
		return db.rawToAssetMove(ctx, src, dest)
	}

	return nil, fmt.Errorf("%w: %s - %s", data.ErrInvalidMountType, srcMount.Type, destMount.Type)
}

// checkMove rejects moves of missing sources, into missing folders, onto existing
// entries (case-only renames excepted) and folder moves colliding by name.
func (db *AssetDB) checkMove(src, dest string) error {
	if !exists(src) {
		return fmt.Errorf("%w: src asset %s", data.ErrNotExist, src)
	}
	if db.store.IsRoot(src) {
		return fmt.Errorf("%w: can not move mount root %s", data.ErrInvalidPath, src)
	}

	parent := filepath.Dir(dest)
	if !exists(parent) {
		return fmt.Errorf("%w: dest parent path %s", data.ErrParentNotExist, parent)
	}

	if exists(dest) && !strings.EqualFold(src, dest) {
		return fmt.Errorf("%w: dest asset %s", data.ErrExist, dest)
	}

	if isDir(src) && isDir(dest) && exists(filepath.Join(dest, filepath.Base(src))) {
		return fmt.Errorf("%w: dest asset %s", data.ErrExist, filepath.Join(dest, filepath.Base(src)))
	}

	return nil
}

// movePairs lists src and every descendant together with its destination path.
func (db *AssetDB) movePairs(src, dest string) ([]string, []string, error) {
	srcs, err := db.scan(src, ScanOptions{})
	if err != nil {
		return nil, nil, err
	}

	dests := make([]string, len(srcs))
	for i, path := range srcs {
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return nil, nil, err
		}
		dests[i] = filepath.Join(dest, rel)
	}

	return srcs, dests, nil
}

// renameWithMeta renames src and its sidecar. If the sidecar can not follow, the
// asset is renamed back.
func (db *AssetDB) renameWithMeta(src, dest string) error {
	if err := os.Rename(src, dest); err != nil {
		return err
	}

	srcMeta := data.MetaPath(src)
	if !exists(srcMeta) {
		return nil
	}

	if err := os.Rename(srcMeta, data.MetaPath(dest)); err != nil {
		if backErr := os.Rename(dest, src); backErr != nil {
			db.logger().Error("failed to move %s back to %s: %v", dest, src, backErr)
			return errors.Join(err, backErr)
		}
		return err
	}

	return nil
}

func (db *AssetDB) assetMove(ctx context.Context, src, dest string) ([]data.MoveResult, error) {
	folder := isDir(src)
	renamed := filepath.Base(src) != filepath.Base(dest)

	srcs, dests, err := db.movePairs(src, dest)
	if err != nil {
		return nil, err
	}

	uuids := make([]string, len(srcs))
	for i, path := range srcs {
		uuids[i] = db.store.ResolveUUID(path)
	}

	if err := db.renameWithMeta(src, dest); err != nil {
		return nil, err
	}

	for i := range srcs {
		db.store.Move(srcs[i], dests[i])
	}

	if !folder && renamed {
		for _, uuid := range uuids {
			if err := db.deleteImported(uuid); err != nil {
				db.logger().Warn("failed to delete imported files of %s: %v", uuid, err)
			}
		}
		if _, err := db.importAsset(ctx, dest); err != nil {
			return nil, err
		}
	}

	for _, uuid := range uuids {
		db.updateMtime(uuid)
	}

	results := make([]data.MoveResult, len(dests))
	for i := range dests {
		results[i] = data.MoveResult{
			SrcMountType:  data.MountTypeAsset,
			DestMountType: data.MountTypeAsset,
			UUID:          uuids[i],
			ParentUUID:    db.parentID(dests[i]),
			SrcPath:       srcs[i],
			DestPath:      dests[i],
		}
	}

	return results, nil
}

func (db *AssetDB) rawMove(src, dest string) ([]data.MoveResult, error) {
	srcs, dests, err := db.movePairs(src, dest)
	if err != nil {
		return nil, err
	}

	if err := db.renameWithMeta(src, dest); err != nil {
		return nil, err
	}

	results := make([]data.MoveResult, len(dests))
	for i := range dests {
		results[i] = data.MoveResult{
			SrcMountType:  data.MountTypeRaw,
			DestMountType: data.MountTypeRaw,
			SrcPath:       srcs[i],
			DestPath:      dests[i],
		}
	}

	return results, nil
}

// copyStripped copies src to dest leaving every sidecar behind.
func copyStripped(src, dest string) error {
	return fileutil.CopyTree(src, dest, func(rel string) bool {
		return data.IsMetaPath(rel)
	})
}

func (db *AssetDB) assetToRawMove(ctx context.Context, src, dest string) ([]data.MoveResult, error) {
	srcs, dests, err := db.movePairs(src, dest)
	if err != nil {
		return nil, err
	}

	uuids := make([]string, len(srcs))
	for i, path := range srcs {
		uuids[i] = db.store.ResolveUUID(path)
	}

	if err := copyStripped(src, dest); err != nil {
		return nil, err
	}
	if _, err := db.delete(ctx, src); err != nil {
		return nil, err
	}

	results := make([]data.MoveResult, len(dests))
	for i := range dests {
		results[i] = data.MoveResult{
			SrcMountType:  data.MountTypeAsset,
			DestMountType: data.MountTypeRaw,
			UUID:          uuids[i],
			SrcPath:       srcs[i],
			DestPath:      dests[i],
		}
	}

	return results, nil
}

func (db *AssetDB) rawToAssetMove(ctx context.Context, src, dest string) ([]data.MoveResult, error) {
	srcs, dests, err := db.movePairs(src, dest)
	if err != nil {
		return nil, err
	}

	if err := copyStripped(src, dest); err != nil {
		return nil, err
	}
	if _, err := db.refresh(ctx, dest); err != nil {
		return nil, err
	}
	if _, err := db.rawDelete(src); err != nil {
		return nil, err
	}

	results := make([]data.MoveResult, len(dests))
	for i := range dests {
		results[i] = data.MoveResult{
			SrcMountType:  data.MountTypeRaw,
			DestMountType: data.MountTypeAsset,
			UUID:          db.store.ResolveUUID(dests[i]),
			ParentUUID:    db.parentID(dests[i]),
			SrcPath:       srcs[i],
			DestPath:      dests[i],
		}
	}

	return results, nil
}
