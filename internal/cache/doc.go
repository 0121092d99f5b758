// Package cache bounds how many decoded blocks stay resident in memory.
//
// Every block owns one cache slot holding its decoded entries. Slots
// register with a Residency after loading; when the residency exceeds its
// block budget or the resource controller refuses more memory, the least
// recently used slots are evicted and reload from disk on their next access.
package cache
