package sqlinline

const QCreateProject = `--sql c95d956d-acec-4502-bb5a-3c1953b75ca4
insert into projects (id, user_id, name, data, thumbnail_url)
values ($1::uuid, $2::text, $3::text, $4::jsonb, nullif($5::text, ''))
returning created_at, updated_at`

const QUpdateProject = `--sql d8a69dce-268e-43bb-891a-6f8264902ff5
update projects
set name          = coalesce(nullif($3::text, ''), name),
    data          = coalesce($4::jsonb, data),
    thumbnail_url = coalesce(nullif($5::text, ''), thumbnail_url),
    updated_at    = now()
where id = $1::uuid
  and user_id = $2::text`

const QGetProject = `--sql e6097a30-5850-41b5-8540-f327bbe77814
select id::text, user_id, name, data, coalesce(thumbnail_url, ''), created_at, updated_at
from projects
where id = $1::uuid
  and user_id = $2::text`

const QListProjects = `--sql 0b52b31e-ef2b-425f-9560-b95075b1d94d
select id::text, user_id, name, coalesce(thumbnail_url, ''), created_at, updated_at
from projects
where user_id = $1::text
order by updated_at desc`

const QListProjectsWithData = `--sql 4aea253b-1a6b-41a6-b250-c3c103e24862
select id::text, user_id, name, data, created_at
from projects
where user_id = $1::text`

const QDeleteProject = `--sql 2df6b86e-b581-47b1-9ff3-738e8874ec49
delete from projects
where id = $1::uuid
  and user_id = $2::text`
