package registry

import (
	_ "embed"
)

//go:embed schema.sql
var initSchemaSQL string

const (
	deleteArraysSQL = `
DELETE FROM arrays
WHERE
    dataset_id IN (SELECT id FROM datasets WHERE name = ?)`

	deleteDatasetSQL = `
DELETE FROM datasets
WHERE
    name = ?`

	insertDatasetSQL = `
INSERT INTO datasets (name)
VALUES (?)`

	insertArraySQL = `
INSERT INTO arrays (dataset_id,
                    key,
                    shape,
                    data)
VALUES (?, ?, ?, ?)`

	selectDatasetIDSQL = `
SELECT
    id
FROM datasets
WHERE
    name = ?`

	selectArraysSQL = `
SELECT
    key,
    shape,
    data
FROM arrays
WHERE
    dataset_id = ?`

	selectDatasetsSQL = `
SELECT
    d.name,
    d.created_at,
    a.key,
    a.shape,
    LENGTH(a.data)
FROM datasets d
    LEFT JOIN arrays a ON a.dataset_id = d.id
ORDER BY d.name, a.key`
)
