package sorting

import (
	"strings"

	"golang.org/x/text/collate"

	"github.com/blackwell-systems/permscope/internal/resolve"
)

// AppKey names an app list ordering.
type AppKey string

const (
	AppLabel        AppKey = "label"
	AppPackage      AppKey = "package"
	AppInstalledAt  AppKey = "installed-at"
	AppUpdatedAt    AppKey = "updated-at"
	AppPermissions  AppKey = "permissions"
	AppGrantedRatio AppKey = "granted-ratio"
)

type app = *resolve.AppResolution

// Apps is the catalog of app list orderings.
var Apps = newCatalog[AppKey, app](AppLabel, func(a, b app) int {
	return a.Pkg.ID.Compare(b.Pkg.ID)
}).
	add(AppLabel, func(c *collate.Collator, a, b app) int {
		return CompareLabels(c, a.Pkg.DisplayLabel(), b.Pkg.DisplayLabel())
	}).
	add(AppPackage, func(_ *collate.Collator, a, b app) int {
		return strings.Compare(a.Pkg.ID.PkgName, b.Pkg.ID.PkgName)
	}).
	add(AppInstalledAt, func(_ *collate.Collator, a, b app) int {
		return b.Pkg.InstalledAt.Compare(a.Pkg.InstalledAt)
	}).
	add(AppUpdatedAt, func(_ *collate.Collator, a, b app) int {
		return b.Pkg.UpdatedAt.Compare(a.Pkg.UpdatedAt)
	}).
	add(AppPermissions, func(_ *collate.Collator, a, b app) int {
		return desc(a.Total, b.Total)
	}).
	add(AppGrantedRatio, func(_ *collate.Collator, a, b app) int {
		return desc(ratio(a.Granted, a.Total), ratio(b.Granted, b.Total))
	})

// PermKey names a permission list ordering.
type PermKey string

const (
	PermID           PermKey = "id"
	PermRequesting   PermKey = "requesting"
	PermGranted      PermKey = "granted"
	PermGrantedRatio PermKey = "granted-ratio"
)

type perm = *resolve.PermResolution

// Permissions is the catalog of permission list orderings.
var Permissions = newCatalog[PermKey, perm](PermID, func(a, b perm) int {
	return strings.Compare(a.ID(), b.ID())
}).
	add(PermID, func(_ *collate.Collator, a, b perm) int {
		return strings.Compare(a.ID(), b.ID())
	}).
	add(PermRequesting, func(_ *collate.Collator, a, b perm) int {
		return desc(a.RequestingCount(), b.RequestingCount())
	}).
	add(PermGranted, func(_ *collate.Collator, a, b perm) int {
		return desc(a.GrantedCount(), b.GrantedCount())
	}).
	add(PermGrantedRatio, func(_ *collate.Collator, a, b perm) int {
		return desc(ratio(a.GrantedCount(), a.RequestingCount()), ratio(b.GrantedCount(), b.RequestingCount()))
	})
